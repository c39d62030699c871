package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository is the Postgres backend over the outreach_queue table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new queue repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var errNoPool = errors.New("queue repository has no database pool")

func (r *Repository) ready() error {
	if r == nil || r.pool == nil {
		return errNoPool
	}
	return nil
}

// Exists reports whether any row, whatever its status, holds email and program.
func (r *Repository) Exists(ctx context.Context, email, program string) (bool, error) {
	if err := r.ready(); err != nil {
		return false, err
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM outreach_queue WHERE email = $1 AND program = $2
		)
	`, email, program).Scan(&exists)
	return exists, err
}

// Insert adds a row unless (email, program) is taken.
func (r *Repository) Insert(ctx context.Context, entry NewEntry) (bool, error) {
	if err := r.ready(); err != nil {
		return false, err
	}

	status := entry.InitialStatus()
	var detail *string
	if status == StatusNoPhone {
		d := NoPhoneDetail
		detail = &d
	}
	var phone *string
	if entry.Phone != "" {
		phone = &entry.Phone
	}

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO outreach_queue (email, phone, name, program, source_event, event_at, status, error_detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email, program) DO NOTHING
		RETURNING id
	`, entry.Email, phone, entry.Name, entry.Program, entry.SourceEvent, entry.EventAt, string(status), detail).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListPending returns pending rows, oldest event first.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]Entry, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, phone, name, program, source_event, event_at, status, error_detail, sent_at, created_at
		FROM outreach_queue
		WHERE status = 'pending'
		ORDER BY event_at ASC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SetStatus updates a pending row. The WHERE clause enforces the transition.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status Status, errorDetail string, sentAt time.Time) error {
	if err := r.ready(); err != nil {
		return err
	}
	if !StatusPending.CanTransition(status) {
		return fmt.Errorf("%w: pending -> %s", ErrInvalidTransition, status)
	}

	var detail *string
	if status == StatusError {
		detail = &errorDetail
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE outreach_queue
		SET status = $2, error_detail = $3, sent_at = $4, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, string(status), detail, sentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrLocked(ctx, id, status)
	}
	return nil
}

func (r *Repository) missingOrLocked(ctx context.Context, id uuid.UUID, status Status) error {
	var current string
	err := r.pool.QueryRow(ctx, `SELECT status FROM outreach_queue WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEntryNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
}

// CountByStatus aggregates the whole table.
func (r *Repository) CountByStatus(ctx context.Context) (Counts, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM outreach_queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(Counts)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

// RequeueErrors moves up to limit failed rows, oldest event first, back to pending.
func (r *Repository) RequeueErrors(ctx context.Context, limit int) (int, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE outreach_queue
		SET status = 'pending', error_detail = NULL, sent_at = NULL, updated_at = now()
		WHERE id IN (
			SELECT id FROM outreach_queue
			WHERE status = 'error'
			ORDER BY event_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
	`, limit)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e      Entry
		phone  *string
		detail *string
		status string
	)
	if err := row.Scan(
		&e.ID, &e.Email, &phone, &e.Name, &e.Program, &e.SourceEvent,
		&e.EventAt, &status, &detail, &e.SentAt, &e.CreatedAt,
	); err != nil {
		return Entry{}, err
	}
	e.Status = Status(status)
	if phone != nil {
		e.Phone = *phone
	}
	if detail != nil {
		e.ErrorDetail = *detail
	}
	return e, nil
}
