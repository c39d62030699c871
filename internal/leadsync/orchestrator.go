// Package leadsync turns last month's relevant bookings into queue entries,
// leaving out people who already bought.
package leadsync

import (
	"context"
	"fmt"
	"time"

	"coldlead_backend/internal/calendly"
	"coldlead_backend/internal/leads"
	"coldlead_backend/internal/purchases"
	"coldlead_backend/internal/queue"
	"coldlead_backend/platform/logger"
)

// EventSource is the scheduling provider.
type EventSource interface {
	ListEvents(ctx context.Context, from, until time.Time) ([]calendly.Event, error)
	ListInvitees(ctx context.Context, eventURI string) ([]calendly.Invitee, error)
}

// ProgramMatcher maps an event name to the program it advertises.
type ProgramMatcher interface {
	Match(eventName string) (string, bool)
}

// PurchaseIndex builds the set of buyers for a window.
type PurchaseIndex interface {
	Build(ctx context.Context, since, until time.Time) (purchases.Set, error)
}

// Enroller is the part of the queue a sync writes to.
type Enroller interface {
	Exists(ctx context.Context, email, program string) bool
	InsertIfAbsent(ctx context.Context, entry queue.NewEntry) bool
}

// Summary reports what one sync did.
type Summary struct {
	Window           Window `json:"window"`
	TotalEvents      int    `json:"totalEvents"`
	RelevantEvents   int    `json:"relevantEvents"`
	UniqueLeads      int    `json:"uniqueLeads"`
	PurchasedEmails  int    `json:"purchasedEmails"`
	SkippedPurchased int    `json:"skippedPurchased"`
	SkippedExists    int    `json:"skippedExists"`
	Inserted         int    `json:"inserted"`
	InsertedNoPhone  int    `json:"noPhone"`
	InsertConflicts  int    `json:"insertConflicts"`
}

type Orchestrator struct {
	events     EventSource
	matcher    ProgramMatcher
	reconciler *leads.Reconciler
	purchases  PurchaseIndex
	store      Enroller
	loc        *time.Location
	now        func() time.Time
	log        *logger.Logger
}

func New(
	events EventSource,
	matcher ProgramMatcher,
	reconciler *leads.Reconciler,
	purchaseIndex PurchaseIndex,
	store Enroller,
	loc *time.Location,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		events:     events,
		matcher:    matcher,
		reconciler: reconciler,
		purchases:  purchaseIndex,
		store:      store,
		loc:        loc,
		now:        time.Now,
		log:        log,
	}
}

// Run syncs the last full month. Running it twice over the same window
// enrolls nobody new the second time.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	now := o.now()
	window := LastFullMonth(now, o.loc)
	summary := Summary{Window: window}
	log := o.log.WithContext(ctx)

	events, err := o.events.ListEvents(ctx, window.Start, window.End)
	if err != nil {
		return summary, fmt.Errorf("fetch scheduled events: %w", err)
	}
	summary.TotalEvents = len(events)

	matched := make([]leads.MatchedEvent, 0)
	for _, ev := range events {
		program, ok := o.matcher.Match(ev.Name)
		if !ok {
			continue
		}
		invitees, err := o.events.ListInvitees(ctx, ev.URI)
		if err != nil {
			log.Warn("invitees unavailable, treating event as empty", "event", ev.URI, "error", err)
			invitees = nil
		}
		matched = append(matched, leads.MatchedEvent{Event: ev, Program: program, Invitees: invitees})
	}
	summary.RelevantEvents = len(matched)

	reconciled := o.reconciler.Reconcile(matched)
	summary.UniqueLeads = len(reconciled)

	bought, err := o.purchases.Build(ctx, window.Start, now)
	if err != nil {
		return summary, fmt.Errorf("load purchases: %w", err)
	}
	summary.PurchasedEmails = bought.Len()

	for _, email := range leads.SortedEmails(reconciled) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		lead := reconciled[email]
		if bought.Has(email) {
			summary.SkippedPurchased++
			continue
		}
		if o.store.Exists(ctx, email, lead.Program) {
			summary.SkippedExists++
			continue
		}
		inserted := o.store.InsertIfAbsent(ctx, queue.NewEntry{
			Email:       email,
			Phone:       lead.Phone,
			Name:        lead.Name,
			Program:     lead.Program,
			SourceEvent: lead.SourceEvent,
			EventAt:     lead.EventAt,
		})
		switch {
		case !inserted:
			summary.InsertConflicts++
		case lead.HasPhone():
			summary.Inserted++
		default:
			summary.InsertedNoPhone++
		}
	}

	log.Info("lead sync finished",
		"window_start", window.Start,
		"window_end", window.End,
		"events", summary.TotalEvents,
		"relevant", summary.RelevantEvents,
		"leads", summary.UniqueLeads,
		"purchased", summary.PurchasedEmails,
		"skipped_purchased", summary.SkippedPurchased,
		"skipped_exists", summary.SkippedExists,
		"inserted", summary.Inserted,
		"no_phone", summary.InsertedNoPhone,
	)
	return summary, nil
}
