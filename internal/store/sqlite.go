package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps snapshots and logs in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and applies any
// pending migrations.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; SQLite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	// m is not closed: that would close db as well.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Close closes the database file.
func (s *SQLiteStore) Close(context.Context) {
	s.db.Close()
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

// Set overwrites the value stored under key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UnixNano())
	return err
}

// RecordCheck appends a posture check to the log.
func (s *SQLiteStore) RecordCheck(ctx context.Context, c PostureCheck) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posture_checks (session_id, score, feedback, checked_at) VALUES (?, ?, ?, ?)
	`, c.SessionID, c.Score, c.Feedback, c.CheckedAt.UnixNano())
	return err
}

// ListChecks returns the most recent checks, newest first.
func (s *SQLiteStore) ListChecks(ctx context.Context, limit int) ([]PostureCheck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, score, feedback, checked_at
		FROM posture_checks ORDER BY checked_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PostureCheck
	for rows.Next() {
		var c PostureCheck
		var at int64
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Score, &c.Feedback, &at); err != nil {
			return nil, err
		}
		c.CheckedAt = time.Unix(0, at)
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddPracticeSession logs a practice entry and returns its ID.
func (s *SQLiteStore) AddPracticeSession(ctx context.Context, p PracticeSession) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO practice_sessions (duration_minutes, tempo_bpm, notes, created_at) VALUES (?, ?, ?, ?)
	`, p.DurationMinutes, p.TempoBPM, p.Notes, p.CreatedAt.UnixNano())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListPracticeSessions returns the most recent practice entries, newest first.
func (s *SQLiteStore) ListPracticeSessions(ctx context.Context, limit int) ([]PracticeSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, duration_minutes, tempo_bpm, notes, created_at
		FROM practice_sessions ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PracticeSession
	for rows.Next() {
		var p PracticeSession
		var at int64
		if err := rows.Scan(&p.ID, &p.DurationMinutes, &p.TempoBPM, &p.Notes, &at); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(0, at)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Reset clears every table in one transaction.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"kv_store", "posture_checks", "practice_sessions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
