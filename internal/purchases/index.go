// Package purchases builds the set of buyer emails used to exclude customers
// from cold outreach.
package purchases

import (
	"context"
	"fmt"
	"time"

	"coldlead_backend/internal/stripe"
	"coldlead_backend/platform/logger"
	"coldlead_backend/platform/sanitize"
)

// ChargeSource is the payments provider surface the index needs.
type ChargeSource interface {
	ListSucceededCharges(ctx context.Context, since, until time.Time) ([]stripe.Charge, error)
	ResolveCustomerEmail(ctx context.Context, customerID string) (string, error)
}

// Set is a set of normalized buyer emails.
type Set map[string]struct{}

// Has reports whether email belongs to someone who paid.
func (s Set) Has(email string) bool {
	_, ok := s[sanitize.Email(email)]
	return ok
}

// Len returns the number of distinct buyer emails.
func (s Set) Len() int { return len(s) }

func (s Set) add(email string) {
	email = sanitize.Email(email)
	if email == "" {
		return
	}
	s[email] = struct{}{}
}

// Index rebuilds the purchase set from the payments provider.
type Index struct {
	source ChargeSource
	log    *logger.Logger
}

// NewIndex creates an Index.
func NewIndex(source ChargeSource, log *logger.Logger) *Index {
	return &Index{source: source, log: log}
}

// Build lists succeeded charges in [since, until] and returns every email tied
// to them. Charges that carry no email are resolved through their customer
// account; a lookup that fails is logged and skipped.
func (i *Index) Build(ctx context.Context, since, until time.Time) (Set, error) {
	charges, err := i.source.ListSucceededCharges(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("build purchase index: %w", err)
	}

	set := make(Set)
	deferred := make(map[string]struct{})
	order := make([]string, 0)

	for _, ch := range charges {
		if ch.Status != "" && ch.Status != stripe.ChargeStatusSucceeded {
			continue
		}
		billing := sanitize.Email(ch.BillingEmail)
		meta := sanitize.Email(ch.MetadataEmail)
		set.add(billing)
		set.add(meta)
		if billing != "" || meta != "" || ch.CustomerID == "" {
			continue
		}
		if _, seen := deferred[ch.CustomerID]; !seen {
			deferred[ch.CustomerID] = struct{}{}
			order = append(order, ch.CustomerID)
		}
	}

	for _, customerID := range order {
		email, err := i.source.ResolveCustomerEmail(ctx, customerID)
		if err != nil {
			i.log.Warn("customer lookup failed", "customer", customerID, "error", err)
			continue
		}
		set.add(email)
	}

	i.log.Info("purchase index built", "charges", len(charges), "customers_resolved", len(order), "emails", set.Len())
	return set, nil
}
