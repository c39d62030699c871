package dispatch

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"coldlead_backend/platform/config"
)

// Pacer holds the dispatcher between two sends.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer sleeps a constant delay.
type FixedPacer struct {
	Delay time.Duration
}

func (p FixedPacer) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RatePacer spaces sends with a token bucket of perMinute messages and no burst.
type RatePacer struct {
	limiter *rate.Limiter
}

func NewRatePacer(perMinute int) *RatePacer {
	if perMinute < 1 {
		perMinute = 1
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	// The first send goes out immediately; Wait is only called between sends.
	limiter.Allow()
	return &RatePacer{limiter: limiter}
}

func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NewPacer picks the pacer configured for outreach.
func NewPacer(cfg config.OutreachConfig) Pacer {
	if cfg.GetPacer() == config.PacerRate {
		return NewRatePacer(cfg.GetRatePerMinute())
	}
	return FixedPacer{Delay: cfg.GetSendDelay()}
}
