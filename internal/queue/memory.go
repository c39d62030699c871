package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBackend keeps the queue in process memory. It backs local dry runs
// and tests; nothing survives a restart.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Entry
	keys    map[string]uuid.UUID
	now     func() time.Time
}

// NewMemoryBackend creates an empty in-memory queue.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[uuid.UUID]*Entry),
		keys:    make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func memoryKey(email, program string) string {
	return email + "\x00" + program
}

func (m *MemoryBackend) Exists(_ context.Context, email, program string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[memoryKey(email, program)]
	return ok, nil
}

func (m *MemoryBackend) Insert(_ context.Context, entry NewEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(entry.Email, entry.Program)
	if _, taken := m.keys[key]; taken {
		return false, nil
	}

	e := &Entry{
		ID:          uuid.New(),
		Email:       entry.Email,
		Phone:       entry.Phone,
		Name:        entry.Name,
		Program:     entry.Program,
		SourceEvent: entry.SourceEvent,
		EventAt:     entry.EventAt,
		Status:      entry.InitialStatus(),
		CreatedAt:   m.now(),
	}
	if e.Status == StatusNoPhone {
		e.ErrorDetail = NoPhoneDetail
	}
	m.entries[e.ID] = e
	m.keys[key] = e.ID
	return true, nil
}

func (m *MemoryBackend) ListPending(_ context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := make([]Entry, 0)
	for _, e := range m.entries {
		if e.Status == StatusPending {
			pending = append(pending, *e)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].EventAt.Equal(pending[j].EventAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].EventAt.Before(pending[j].EventAt)
	})
	if limit >= 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *MemoryBackend) SetStatus(_ context.Context, id uuid.UUID, status Status, errorDetail string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	if !e.Status.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, status)
	}
	e.Status = status
	e.ErrorDetail = ""
	if status == StatusError {
		e.ErrorDetail = errorDetail
	}
	stamped := sentAt
	e.SentAt = &stamped
	return nil
}

func (m *MemoryBackend) CountByStatus(context.Context) (Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(Counts)
	for _, e := range m.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (m *MemoryBackend) RequeueErrors(_ context.Context, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	failed := make([]*Entry, 0)
	for _, e := range m.entries {
		if e.Status == StatusError {
			failed = append(failed, e)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].EventAt.Before(failed[j].EventAt) })
	if len(failed) > limit {
		failed = failed[:limit]
	}
	for _, e := range failed {
		e.Status = StatusPending
		e.ErrorDetail = ""
		e.SentAt = nil
	}
	return len(failed), nil
}
