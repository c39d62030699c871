// Package dispatch drains pending queue entries through the messaging channel.
package dispatch

import (
	"context"

	"github.com/google/uuid"

	"coldlead_backend/internal/queue"
	"coldlead_backend/internal/whatsapp"
	"coldlead_backend/platform/logger"
)

// Sender is the messaging channel.
type Sender interface {
	Send(ctx context.Context, phone, message string) whatsapp.Result
}

// StatusWriter persists one dispatch outcome.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status queue.Status, errorDetail string) bool
}

// Item is the outcome of one entry.
type Item struct {
	ID     uuid.UUID    `json:"id"`
	Email  string       `json:"email"`
	Phone  string       `json:"phone"`
	Status queue.Status `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// Result summarizes a batch.
type Result struct {
	Attempted int    `json:"attempted"`
	Sent      int    `json:"sent"`
	Errors    int    `json:"errors"`
	Items     []Item `json:"results"`
}

type Dispatcher struct {
	sender  Sender
	store   StatusWriter
	pacer   Pacer
	message MessageBuilder
	log     *logger.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithMessageBuilder replaces the default message text.
func WithMessageBuilder(b MessageBuilder) Option {
	return func(d *Dispatcher) { d.message = b }
}

func New(sender Sender, store StatusWriter, pacer Pacer, log *logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:  sender,
		store:   store,
		pacer:   pacer,
		message: DefaultMessage,
		log:     log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends each entry once, in order, and records the outcome before
// moving on. Failures never stop the batch; cancellation does, leaving the
// remaining entries pending.
func (d *Dispatcher) Dispatch(ctx context.Context, entries []queue.Entry) Result {
	result := Result{Items: make([]Item, 0, len(entries))}

	for i, entry := range entries {
		if i > 0 {
			if err := d.pacer.Wait(ctx); err != nil {
				d.log.Warn("dispatch interrupted", "remaining", len(entries)-i, "error", err)
				break
			}
		} else if ctx.Err() != nil {
			break
		}

		text := d.message(FirstName(entry.Name), entry.Program)
		sent := d.sender.Send(ctx, entry.Phone, text)
		result.Attempted++

		item := Item{ID: entry.ID, Email: entry.Email, Phone: entry.Phone}
		if sent.Sent {
			item.Status = queue.StatusSent
			result.Sent++
		} else {
			item.Status = queue.StatusError
			item.Error = sent.Error
			result.Errors++
		}

		if !d.store.UpdateStatus(ctx, entry.ID, item.Status, item.Error) {
			d.log.Error("dispatch outcome not persisted", "id", entry.ID, "status", item.Status)
		}
		d.log.Info("outreach message processed", "email", entry.Email, "program", entry.Program, "status", item.Status)
		result.Items = append(result.Items, item)
	}

	return result
}
