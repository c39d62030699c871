package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"coldlead_backend/platform/logger"
	"coldlead_backend/platform/sanitize"
)

// Store is the queue as the pipeline sees it. Backend failures are logged and
// reported as empty, false or zero results, so "store unreachable" and "nothing
// to do" look the same to callers. The log is the only place they differ.
type Store struct {
	backend Backend
	log     *logger.Logger
	now     func() time.Time
}

// NewStore wraps a backend.
func NewStore(backend Backend, log *logger.Logger) *Store {
	return &Store{backend: backend, log: log, now: time.Now}
}

// Exists reports whether email is already enrolled in program, in any status.
func (s *Store) Exists(ctx context.Context, email, program string) bool {
	exists, err := s.backend.Exists(ctx, sanitize.Email(email), program)
	if err != nil {
		s.log.DatabaseError("queue.exists", err)
		return false
	}
	return exists
}

// InsertIfAbsent enrolls a lead. A conflicting (email, program) is reported as
// not inserted.
func (s *Store) InsertIfAbsent(ctx context.Context, entry NewEntry) bool {
	entry.Email = sanitize.Email(entry.Email)
	inserted, err := s.backend.Insert(ctx, entry)
	if err != nil {
		s.log.DatabaseError("queue.insert", err)
		return false
	}
	return inserted
}

// ReadPending returns up to limit pending entries, oldest event first.
func (s *Store) ReadPending(ctx context.Context, limit int) []Entry {
	if limit <= 0 {
		return nil
	}
	entries, err := s.backend.ListPending(ctx, limit)
	if err != nil {
		s.log.DatabaseError("queue.read_pending", err)
		return nil
	}
	return entries
}

// UpdateStatus records a dispatch outcome and stamps the send time. It reports
// whether the update was stored.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, errorDetail string) bool {
	if !status.Valid() {
		s.log.Warn("refusing unknown queue status", "id", id, "status", string(status))
		return false
	}
	if err := s.backend.SetStatus(ctx, id, status, errorDetail, s.now()); err != nil {
		s.log.DatabaseError("queue.update_status", err)
		return false
	}
	return true
}

// CountByStatus returns a count for every known status, zeros included.
func (s *Store) CountByStatus(ctx context.Context) Counts {
	counts := make(Counts, len(AllStatuses))
	for _, st := range AllStatuses {
		counts[st] = 0
	}
	raw, err := s.backend.CountByStatus(ctx)
	if err != nil {
		s.log.DatabaseError("queue.count_by_status", err)
		return counts
	}
	for st, n := range raw {
		counts[st] = n
	}
	return counts
}

// RequeueErrors moves up to limit failed entries back to pending. It is only
// ever called as an explicit retry.
func (s *Store) RequeueErrors(ctx context.Context, limit int) int {
	if limit <= 0 {
		return 0
	}
	n, err := s.backend.RequeueErrors(ctx, limit)
	if err != nil {
		s.log.DatabaseError("queue.requeue_errors", err)
		return 0
	}
	return n
}
