package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresStore keeps snapshots and logs in PostgreSQL.
type PostgresStore struct {
	conn *pgx.Conn
}

// NewPostgres establishes a connection to the database and ensures the schema is initialized.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &PostgresStore{conn: conn}, nil
}

// initSchema creates the tables if they don't exist.
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS posture_checks (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			feedback TEXT NOT NULL,
			checked_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS practice_sessions (
			id BIGSERIAL PRIMARY KEY,
			duration_minutes INT NOT NULL,
			tempo_bpm INT NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS posture_checks_checked_at_idx ON posture_checks (checked_at);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *PostgresStore) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// Get returns the value stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.conn.QueryRow(ctx, "SELECT value FROM kv_store WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

// Set overwrites the value stored under key.
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	return err
}

// RecordCheck appends a posture check to the log.
func (s *PostgresStore) RecordCheck(ctx context.Context, c PostureCheck) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO posture_checks (session_id, score, feedback, checked_at)
		VALUES ($1, $2, $3, $4)
	`, c.SessionID, c.Score, c.Feedback, c.CheckedAt)
	return err
}

// ListChecks returns the most recent checks, newest first.
func (s *PostgresStore) ListChecks(ctx context.Context, limit int) ([]PostureCheck, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, session_id, score, feedback, checked_at
		FROM posture_checks ORDER BY checked_at DESC, id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PostureCheck, error) {
		var c PostureCheck
		err := row.Scan(&c.ID, &c.SessionID, &c.Score, &c.Feedback, &c.CheckedAt)
		return c, err
	})
}

// AddPracticeSession logs a practice entry and returns its ID.
func (s *PostgresStore) AddPracticeSession(ctx context.Context, p PracticeSession) (int64, error) {
	var id int64
	err := s.conn.QueryRow(ctx, `
		INSERT INTO practice_sessions (duration_minutes, tempo_bpm, notes, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id
	`, p.DurationMinutes, p.TempoBPM, p.Notes, p.CreatedAt).Scan(&id)
	return id, err
}

// ListPracticeSessions returns the most recent practice entries, newest first.
func (s *PostgresStore) ListPracticeSessions(ctx context.Context, limit int) ([]PracticeSession, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, duration_minutes, tempo_bpm, notes, created_at
		FROM practice_sessions ORDER BY created_at DESC, id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PracticeSession, error) {
		var p PracticeSession
		err := row.Scan(&p.ID, &p.DurationMinutes, &p.TempoBPM, &p.Notes, &p.CreatedAt)
		return p, err
	})
}

// Reset clears every table in one transaction.
func (s *PostgresStore) Reset(ctx context.Context) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE kv_store, posture_checks, practice_sessions RESTART IDENTITY"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
