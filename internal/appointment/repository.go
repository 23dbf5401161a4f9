package appointment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"symptom-triage/internal/store"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ListByUser returns a user's appointments ordered by scheduled time.
	ListByUser(ctx context.Context, userID string) ([]Appointment, error)
	// SetStatus moves an appointment from one status to another. It returns
	// ErrNotFound when no row with that id is in the from status.
	SetStatus(ctx context.Context, id uuid.UUID, from, to Status) error
}

func NewRepository(db *store.DB) Repository {
	if db.Driver == store.SQLite {
		return &sqliteRepo{db: db.DB}
	}
	return &postgresRepo{db: db.DB}
}

type rowScanner interface {
	Scan(dest ...any) error
}

type postgresRepo struct {
	db *sql.DB
}

func (r *postgresRepo) Create(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (id, user_id, name, reason, scheduled_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.Name, a.Reason, a.ScheduledAt.UTC(), string(a.Status), a.CreatedAt.UTC())
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT id, user_id, name, reason, scheduled_at, status, created_at FROM appointments WHERE id = $1`
	a, err := scanPostgres(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, reason, scheduled_at, status, created_at
		FROM appointments
		WHERE user_id = $1
		ORDER BY scheduled_at, created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		a, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) SetStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $1 WHERE id = $2 AND status = $3`, string(to), id, string(from))
	return checkAffected(res, err)
}

func scanPostgres(row rowScanner) (*Appointment, error) {
	var a Appointment
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Reason, &a.ScheduledAt, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ScheduledAt = a.ScheduledAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

type sqliteRepo struct {
	db *sql.DB
}

func (r *sqliteRepo) Create(ctx context.Context, a *Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (id, user_id, name, reason, scheduled_at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.UserID, a.Name, a.Reason,
		store.FormatTime(a.ScheduledAt), string(a.Status), store.FormatTime(a.CreatedAt))
	return err
}

func (r *sqliteRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanSQLite(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, reason, scheduled_at, status, created_at FROM appointments WHERE id = ?`,
		id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *sqliteRepo) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, reason, scheduled_at, status, created_at
		FROM appointments
		WHERE user_id = ?
		ORDER BY scheduled_at, created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		a, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *sqliteRepo) SetStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = ? WHERE id = ? AND status = ?`, string(to), id.String(), string(from))
	return checkAffected(res, err)
}

func scanSQLite(row rowScanner) (*Appointment, error) {
	var a Appointment
	var id, scheduled, created string
	if err := row.Scan(&id, &a.UserID, &a.Name, &a.Reason, &scheduled, &a.Status, &created); err != nil {
		return nil, err
	}
	var err error
	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if a.ScheduledAt, err = store.ParseTime(scheduled); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = store.ParseTime(created); err != nil {
		return nil, err
	}
	return &a, nil
}

func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
