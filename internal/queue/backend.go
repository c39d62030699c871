package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEntryNotFound is returned when an update targets an unknown id.
	ErrEntryNotFound = errors.New("queue entry not found")
	// ErrInvalidTransition is returned when the current status forbids the update.
	ErrInvalidTransition = errors.New("invalid queue status transition")
)

// Backend is the storage contract behind Store. Implementations report
// failures as errors; Store decides how callers see them.
type Backend interface {
	Exists(ctx context.Context, email, program string) (bool, error)
	// Insert returns false without error when (email, program) already exists.
	Insert(ctx context.Context, entry NewEntry) (bool, error)
	ListPending(ctx context.Context, limit int) ([]Entry, error)
	// SetStatus moves a pending entry to sent or error and stamps sentAt.
	SetStatus(ctx context.Context, id uuid.UUID, status Status, errorDetail string, sentAt time.Time) error
	CountByStatus(ctx context.Context) (Counts, error)
	RequeueErrors(ctx context.Context, limit int) (int, error)
}
