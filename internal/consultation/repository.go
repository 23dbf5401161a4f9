package consultation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"symptom-triage/internal/store"
)

// Repository is the interaction log.
type Repository interface {
	// Append stores rec in a single statement and sets rec.ID.
	Append(ctx context.Context, rec *Record) error
	// Recent returns the newest limit records of a user, newest first.
	// limit <= 0 returns all of them.
	Recent(ctx context.Context, userID string, limit int) ([]Record, error)
}

// NewRepository picks the implementation matching the store's dialect.
func NewRepository(db *store.DB) Repository {
	if db.Driver == store.SQLite {
		return &sqliteRepo{db: db.DB}
	}
	return &postgresRepo{db: db.DB}
}

type postgresRepo struct {
	db *sql.DB
}

func (r *postgresRepo) Append(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO interaction_logs
			(user_id, user_input, bot_response, symptoms_detected, conditions_found, language, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.UserInput, rec.BotResponse,
		joinKeys(rec.Symptoms), joinKeys(rec.Conditions),
		rec.Language, rec.Timestamp.UTC(),
	).Scan(&rec.ID)
}

func (r *postgresRepo) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	query := `
		SELECT id, user_id, user_input, bot_response, symptoms_detected, conditions_found, language, timestamp
		FROM interaction_logs
		WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if store.IsMissingTable(err) {
			return []Record{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var symptoms, conditions string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.UserInput, &rec.BotResponse,
			&symptoms, &conditions, &rec.Language, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Symptoms = splitKeys(symptoms)
		rec.Conditions = splitKeys(conditions)
		rec.Timestamp = rec.Timestamp.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

type sqliteRepo struct {
	db *sql.DB
}

func (r *sqliteRepo) Append(ctx context.Context, rec *Record) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO interaction_logs
			(user_id, user_input, bot_response, symptoms_detected, conditions_found, language, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.UserInput, rec.BotResponse,
		joinKeys(rec.Symptoms), joinKeys(rec.Conditions),
		rec.Language, store.FormatTime(rec.Timestamp),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}
	rec.ID = id
	return nil
}

func (r *sqliteRepo) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, user_input, bot_response, symptoms_detected, conditions_found, language, timestamp
		FROM interaction_logs
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		if store.IsMissingTable(err) {
			return []Record{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var symptoms, conditions, ts string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.UserInput, &rec.BotResponse,
			&symptoms, &conditions, &rec.Language, &ts); err != nil {
			return nil, err
		}
		if rec.Timestamp, err = store.ParseTime(ts); err != nil {
			return nil, err
		}
		rec.Symptoms = splitKeys(symptoms)
		rec.Conditions = splitKeys(conditions)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Keys never contain commas, so a comma-joined list is unambiguous.
func joinKeys(keys []string) string {
	return strings.Join(keys, ",")
}

func splitKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
