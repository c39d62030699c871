package leadsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"coldlead_backend/internal/calendly"
	"coldlead_backend/internal/leads"
	"coldlead_backend/internal/programs"
	"coldlead_backend/internal/purchases"
	"coldlead_backend/internal/queue"
	"coldlead_backend/platform/logger"
)

type fakeEvents struct {
	events      []calendly.Event
	invitees    map[string][]calendly.Invitee
	failInvites map[string]bool
	listErr     error
	from, until time.Time
}

func (f *fakeEvents) ListEvents(_ context.Context, from, until time.Time) ([]calendly.Event, error) {
	f.from, f.until = from, until
	return f.events, f.listErr
}

func (f *fakeEvents) ListInvitees(_ context.Context, uri string) ([]calendly.Invitee, error) {
	if f.failInvites[uri] {
		return nil, errors.New("calendly 500")
	}
	return f.invitees[uri], nil
}

type fakePurchases struct {
	emails       []string
	err          error
	since, until time.Time
}

func (f *fakePurchases) Build(_ context.Context, since, until time.Time) (purchases.Set, error) {
	f.since, f.until = since, until
	if f.err != nil {
		return nil, f.err
	}
	set := make(purchases.Set)
	for _, e := range f.emails {
		set[e] = struct{}{}
	}
	return set, nil
}

func phoneQ(p string) []calendly.QuestionAnswer {
	return []calendly.QuestionAnswer{{Question: "Teléfono", Answer: p}}
}

func fixture() (*fakeEvents, *fakePurchases) {
	at := time.Date(2026, 9, 10, 17, 0, 0, 0, time.UTC)
	events := &fakeEvents{
		events: []calendly.Event{
			{URI: "https://calendly.test/e/1", Name: "Entrevista Abogacía", StartTime: at},
			{URI: "https://calendly.test/e/2", Name: "Webinar general", StartTime: at},
			{URI: "https://calendly.test/e/3", Name: "Legal Prime", StartTime: at.Add(time.Hour)},
			{URI: "https://calendly.test/e/4", Name: "Formación Justicia", StartTime: at},
		},
		invitees: map[string][]calendly.Invitee{
			"https://calendly.test/e/1": {
				{Email: "ana@example.com", Name: "Ana", Questions: phoneQ("600111222")},
				{Email: "buyer@example.com", Name: "Bea", Questions: phoneQ("600333444")},
			},
			"https://calendly.test/e/2": {{Email: "ignored@example.com"}},
			"https://calendly.test/e/3": {{Email: "carl@example.com", Name: "Carl"}},
		},
		failInvites: map[string]bool{"https://calendly.test/e/4": true},
	}
	return events, &fakePurchases{emails: []string{"buyer@example.com"}}
}

func newOrchestrator(events *fakeEvents, bought *fakePurchases, store *queue.Store, now time.Time) *Orchestrator {
	loc, _ := time.LoadLocation("Europe/Madrid")
	o := New(events, programs.Default(), leads.NewReconciler("+34"), bought, store, loc, logger.Discard())
	o.now = func() time.Time { return now }
	return o
}

func TestRunEnrollsLeadsAndSkipsBuyers(t *testing.T) {
	events, bought := fixture()
	store := queue.NewStore(queue.NewMemoryBackend(), logger.Discard())
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	summary, err := newOrchestrator(events, bought, store, now).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.TotalEvents != 4 || summary.RelevantEvents != 3 || summary.UniqueLeads != 3 {
		t.Fatalf("unexpected event/lead counts %+v", summary)
	}
	if summary.PurchasedEmails != 1 || summary.SkippedPurchased != 1 {
		t.Fatalf("expected the buyer to be skipped, got %+v", summary)
	}
	if summary.Inserted != 1 || summary.InsertedNoPhone != 1 || summary.SkippedExists != 0 {
		t.Fatalf("unexpected insert counts %+v", summary)
	}
	if !store.Exists(context.Background(), "ana@example.com", "Abogacía Élite") {
		t.Fatal("expected ana enrolled in Abogacía Élite")
	}
	if store.Exists(context.Background(), "buyer@example.com", "Abogacía Élite") {
		t.Fatal("buyers must not be enrolled")
	}

	counts := store.CountByStatus(context.Background())
	if counts[queue.StatusPending] != 1 || counts[queue.StatusNoPhone] != 1 {
		t.Fatalf("unexpected queue counts %v", counts)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	events, bought := fixture()
	store := queue.NewStore(queue.NewMemoryBackend(), logger.Discard())
	o := newOrchestrator(events, bought, store, time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Inserted != 0 || second.InsertedNoPhone != 0 || second.SkippedExists != 2 {
		t.Fatalf("second run must enroll nobody, got %+v", second)
	}
}

func TestRunUsesLastFullMonthInConfiguredZone(t *testing.T) {
	events, bought := fixture()
	store := queue.NewStore(queue.NewMemoryBackend(), logger.Discard())
	// 23:30 UTC on Sep 30 is already October 1st in Madrid.
	now := time.Date(2026, 9, 30, 23, 30, 0, 0, time.UTC)

	if _, err := newOrchestrator(events, bought, store, now).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	loc, _ := time.LoadLocation("Europe/Madrid")
	wantStart := time.Date(2026, 9, 1, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2026, 10, 1, 0, 0, 0, 0, loc)
	if !events.from.Equal(wantStart) || !events.until.Equal(wantEnd) {
		t.Fatalf("events window = [%s, %s), want [%s, %s)", events.from, events.until, wantStart, wantEnd)
	}
	if !bought.since.Equal(wantStart) || !bought.until.Equal(now) {
		t.Fatalf("purchases window = [%s, %s], want [%s, %s]", bought.since, bought.until, wantStart, now)
	}
}

func TestRunFailsWhenUpstreamFails(t *testing.T) {
	store := queue.NewStore(queue.NewMemoryBackend(), logger.Discard())
	now := time.Now()

	events, bought := fixture()
	events.listErr = errors.New("calendly down")
	if _, err := newOrchestrator(events, bought, store, now).Run(context.Background()); err == nil {
		t.Fatal("expected error when events cannot be listed")
	}

	events, bought = fixture()
	bought.err = errors.New("stripe down")
	if _, err := newOrchestrator(events, bought, store, now).Run(context.Background()); err == nil {
		t.Fatal("expected error when purchases cannot be loaded")
	}
	if store.CountByStatus(context.Background()).Total() != 0 {
		t.Fatal("nothing may be enrolled without a purchase index")
	}
}

func TestLastFullMonthAcrossYear(t *testing.T) {
	w := LastFullMonth(time.Date(2027, 1, 15, 12, 0, 0, 0, time.UTC), time.UTC)
	if !w.Start.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) || !w.End.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window %+v", w)
	}
}
