// Package leads reconciles scheduling invitees into one lead per email.
package leads

import (
	"sort"
	"strings"
	"time"

	"coldlead_backend/internal/calendly"
	"coldlead_backend/platform/phone"
	"coldlead_backend/platform/sanitize"
)

// Lead is the reconciled view of one contact for a sync run.
type Lead struct {
	Email       string
	Name        string
	Phone       string
	Program     string
	SourceEvent string
	EventURI    string
	EventAt     time.Time
}

// HasPhone reports whether a phone was found in the booking answers.
func (l Lead) HasPhone() bool { return l.Phone != "" }

// MatchedEvent is an event that passed the program filter, with its invitees.
type MatchedEvent struct {
	Event    calendly.Event
	Program  string
	Invitees []calendly.Invitee
}

// phoneKeywords are compared against folded question text.
var phoneKeywords = []string{
	"telefono",
	"phone",
	"whatsapp",
	"movil",
	"celular",
	"numero",
}

// Reconciler merges invitees across events.
type Reconciler struct {
	countryCode string
}

// NewReconciler creates a Reconciler that prefixes short national numbers
// with countryCode.
func NewReconciler(countryCode string) *Reconciler {
	return &Reconciler{countryCode: countryCode}
}

// Reconcile returns one Lead per normalized email. When an email appears in
// several events, the event with the latest start time wins; on equal start
// times the lower event URI wins, so the result does not depend on input order.
func (r *Reconciler) Reconcile(events []MatchedEvent) map[string]Lead {
	out := make(map[string]Lead)
	for _, me := range events {
		for _, inv := range me.Invitees {
			if inv.Status == calendly.InviteeStatusCanceled {
				continue
			}
			email := sanitize.Email(inv.Email)
			if email == "" {
				continue
			}

			candidate := Lead{
				Email:       email,
				Name:        strings.TrimSpace(inv.Name),
				Phone:       ExtractPhone(inv, r.countryCode),
				Program:     me.Program,
				SourceEvent: me.Event.Name,
				EventURI:    me.Event.URI,
				EventAt:     me.Event.StartTime,
			}

			current, seen := out[email]
			if !seen || supersedes(candidate, current) {
				out[email] = candidate
			}
		}
	}
	return out
}

func supersedes(candidate, current Lead) bool {
	if !candidate.EventAt.Equal(current.EventAt) {
		return candidate.EventAt.After(current.EventAt)
	}
	return candidate.EventURI < current.EventURI
}

// SortedEmails returns the keys of a reconciled map in ascending order.
func SortedEmails(leads map[string]Lead) []string {
	emails := make([]string, 0, len(leads))
	for email := range leads {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

// ExtractPhone finds the first phone-like question with a non-empty answer
// and turns it into an international number. The first such answer decides:
// if it holds no digits the invitee has no phone.
func ExtractPhone(inv calendly.Invitee, countryCode string) string {
	for _, qa := range inv.Questions {
		if !isPhoneQuestion(qa.Question) {
			continue
		}
		answer := strings.TrimSpace(qa.Answer)
		if answer == "" {
			continue
		}
		return phone.Internationalize(answer, countryCode)
	}
	return ""
}

func isPhoneQuestion(question string) bool {
	folded := sanitize.Fold(question)
	for _, kw := range phoneKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
