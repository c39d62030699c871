// Package queue is the durable outreach queue: one entry per (email, program),
// moved through a small status machine by the dispatcher.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a queue entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusNoPhone Status = "no_phone"
	StatusSent    Status = "sent"
	StatusError   Status = "error"
)

// NoPhoneDetail is stored on entries that can never be dispatched.
const NoPhoneDetail = "no phone found in scheduling answers"

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusPending, StatusNoPhone, StatusSent, StatusError}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusNoPhone, StatusSent, StatusError:
		return true
	}
	return false
}

// CanTransition reports whether the dispatcher may move an entry from s to next.
// Requeueing failed entries is a separate operation and not a transition here.
func (s Status) CanTransition(next Status) bool {
	return s == StatusPending && (next == StatusSent || next == StatusError)
}

// Entry is a persisted unit of outreach work.
type Entry struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Name        string     `json:"name"`
	Program     string     `json:"program"`
	SourceEvent string     `json:"sourceEvent"`
	EventAt     time.Time  `json:"eventAt"`
	Status      Status     `json:"status"`
	ErrorDetail string     `json:"errorDetail,omitempty"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewEntry is the data needed to enroll a lead.
type NewEntry struct {
	Email       string
	Phone       string
	Name        string
	Program     string
	SourceEvent string
	EventAt     time.Time
}

// InitialStatus is pending when the lead can be messaged, no_phone otherwise.
func (n NewEntry) InitialStatus() Status {
	if n.Phone == "" {
		return StatusNoPhone
	}
	return StatusPending
}

// Counts maps every status to its row count.
type Counts map[Status]int

// Total sums all statuses.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
