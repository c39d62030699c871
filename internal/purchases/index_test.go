package purchases

import (
	"context"
	"errors"
	"testing"
	"time"

	"coldlead_backend/internal/stripe"
	"coldlead_backend/platform/logger"
)

type fakeSource struct {
	charges   []stripe.Charge
	listErr   error
	customers map[string]string
	failing   map[string]bool
	lookups   map[string]int
}

func (f *fakeSource) ListSucceededCharges(context.Context, time.Time, time.Time) ([]stripe.Charge, error) {
	return f.charges, f.listErr
}

func (f *fakeSource) ResolveCustomerEmail(_ context.Context, id string) (string, error) {
	if f.lookups == nil {
		f.lookups = map[string]int{}
	}
	f.lookups[id]++
	if f.failing[id] {
		return "", errors.New("boom")
	}
	return f.customers[id], nil
}

func TestBuildCollectsEveryEmailSource(t *testing.T) {
	src := &fakeSource{
		charges: []stripe.Charge{
			{ID: "ch_1", Status: "succeeded", BillingEmail: " Ana@Example.com "},
			{ID: "ch_2", Status: "succeeded", BillingEmail: "both@example.com", MetadataEmail: "meta@example.com"},
			{ID: "ch_3", Status: "succeeded", MetadataEmail: "only-meta@example.com", CustomerID: "cus_unused"},
			{ID: "ch_4", Status: "succeeded", CustomerID: "cus_1"},
			{ID: "ch_5", Status: "succeeded", CustomerID: "cus_1"},
			{ID: "ch_6", Status: "succeeded", CustomerID: "cus_bad"},
			{ID: "ch_7", Status: "failed", BillingEmail: "failed@example.com"},
		},
		customers: map[string]string{"cus_1": "Customer@Example.com"},
		failing:   map[string]bool{"cus_bad": true},
	}

	set, err := NewIndex(src, logger.Discard()).Build(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, email := range []string{"ana@example.com", "both@example.com", "meta@example.com", "only-meta@example.com", "customer@example.com"} {
		if !set.Has(email) {
			t.Fatalf("expected %s in purchase set", email)
		}
	}
	if set.Has("failed@example.com") {
		t.Fatal("non-succeeded charge must be ignored")
	}
	if set.Len() != 5 {
		t.Fatalf("expected 5 emails, got %d", set.Len())
	}
	if src.lookups["cus_1"] != 1 {
		t.Fatalf("expected deferred customer to be resolved once, got %d", src.lookups["cus_1"])
	}
	if src.lookups["cus_unused"] != 0 {
		t.Fatal("customer with an email on the charge must not be looked up")
	}
}

func TestBuildFailsWhenListingFails(t *testing.T) {
	src := &fakeSource{listErr: errors.New("stripe down")}
	if _, err := NewIndex(src, logger.Discard()).Build(context.Background(), time.Now(), time.Now()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetHasNormalizes(t *testing.T) {
	set := make(Set)
	set.add("Mixed@Case.com")
	if !set.Has("  mixed@case.COM ") {
		t.Fatal("expected normalized lookup to match")
	}
	if set.Has("") {
		t.Fatal("empty email must never be in the set")
	}
}
