package leads

import (
	"testing"
	"time"

	"coldlead_backend/internal/calendly"
)

func event(name string, at time.Time) calendly.Event {
	return calendly.Event{URI: "https://api.calendly.com/scheduled_events/" + name, Name: name, StartTime: at}
}

func phoneAnswer(answer string) []calendly.QuestionAnswer {
	return []calendly.QuestionAnswer{{Question: "Teléfono (WhatsApp)", Answer: answer}}
}

func TestReconcileLatestEventWinsRegardlessOfOrder(t *testing.T) {
	early := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	late := time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC)

	first := MatchedEvent{
		Event:    event("Examen abogacía", early),
		Program:  "Examen de Acceso a la Abogacía",
		Invitees: []calendly.Invitee{{Email: "Ana@Example.com", Name: "Ana Ruiz", Questions: phoneAnswer("612 345 678")}},
	}
	second := MatchedEvent{
		Event:    event("Legal Prime", late),
		Program:  "Legal Prime",
		Invitees: []calendly.Invitee{{Email: "ana@example.com ", Name: "Ana R."}},
	}

	r := NewReconciler("+34")
	for _, order := range [][]MatchedEvent{{first, second}, {second, first}} {
		got := r.Reconcile(order)
		if len(got) != 1 {
			t.Fatalf("expected 1 lead, got %d", len(got))
		}
		lead := got["ana@example.com"]
		if lead.Program != "Legal Prime" || !lead.EventAt.Equal(late) {
			t.Fatalf("expected latest event to win, got %+v", lead)
		}
		if lead.HasPhone() {
			t.Fatalf("expected phone of the winning event (none), got %q", lead.Phone)
		}
	}
}

func TestReconcileEqualTimesIgnoreOrder(t *testing.T) {
	at := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	a := MatchedEvent{Event: event("a", at), Program: "A", Invitees: []calendly.Invitee{{Email: "x@example.com"}}}
	b := MatchedEvent{Event: event("b", at), Program: "B", Invitees: []calendly.Invitee{{Email: "x@example.com"}}}

	for _, order := range [][]MatchedEvent{{a, b}, {b, a}} {
		got := NewReconciler("+34").Reconcile(order)
		lead := got["x@example.com"]
		if lead.Program != "A" || lead.EventURI != a.Event.URI {
			t.Fatalf("expected the lower event URI to win a tie, got %q (%s)", lead.Program, lead.EventURI)
		}
	}
}

func TestReconcileSkipsCanceledAndEmpty(t *testing.T) {
	me := MatchedEvent{
		Event:   event("e", time.Now()),
		Program: "P",
		Invitees: []calendly.Invitee{
			{Email: "gone@example.com", Status: calendly.InviteeStatusCanceled},
			{Email: "   "},
			{Email: "kept@example.com", Status: "active"},
		},
	}
	got := NewReconciler("+34").Reconcile([]MatchedEvent{me})
	if len(got) != 1 {
		t.Fatalf("expected only the active invitee, got %v", SortedEmails(got))
	}
	if _, ok := got["kept@example.com"]; !ok {
		t.Fatal("expected kept@example.com")
	}
}

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		name      string
		questions []calendly.QuestionAnswer
		want      string
	}{
		{"national number gets country code", phoneAnswer("612-345-678"), "+34612345678"},
		{"plus is kept", phoneAnswer("+52 55 1234 5678"), "+525512345678"},
		{"us number unchanged", phoneAnswer("+1 650 555 0100"), "+16505550100"},
		{"long number gets bare plus", phoneAnswer("5215512345678"), "+5215512345678"},
		{"accentless keyword", []calendly.QuestionAnswer{{Question: "Numero de movil", Answer: "600111222"}}, "+34600111222"},
		{"english keyword", []calendly.QuestionAnswer{{Question: "Your PHONE", Answer: "600111222"}}, "+34600111222"},
		{"unrelated question ignored", []calendly.QuestionAnswer{{Question: "¿Qué te interesa?", Answer: "600111222"}}, ""},
		{"empty answer skipped", []calendly.QuestionAnswer{
			{Question: "Teléfono", Answer: "  "},
			{Question: "WhatsApp", Answer: "699 000 111"},
		}, "+34699000111"},
		{"first answer without digits means no phone", []calendly.QuestionAnswer{
			{Question: "Teléfono", Answer: "no tengo"},
			{Question: "WhatsApp", Answer: "699 000 111"},
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPhone(calendly.Invitee{Questions: tt.questions}, "+34")
			if got != tt.want {
				t.Fatalf("ExtractPhone() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSortedEmails(t *testing.T) {
	got := SortedEmails(map[string]Lead{"c@x": {}, "a@x": {}, "b@x": {}})
	if got[0] != "a@x" || got[1] != "b@x" || got[2] != "c@x" {
		t.Fatalf("unexpected order %v", got)
	}
}
