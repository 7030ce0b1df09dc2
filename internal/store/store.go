package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by Get for a key that was never written.
var ErrNotFound = errors.New("not found")

// PostureCheck is one logged scoring result.
type PostureCheck struct {
	ID        int64
	SessionID string
	Score     float64
	Feedback  string
	CheckedAt time.Time
}

// PracticeSession is a practice entry logged by the user.
type PracticeSession struct {
	ID              int64
	DurationMinutes int
	TempoBPM        int
	Notes           string
	CreatedAt       time.Time
}

// Store is the persistence surface shared by the Postgres and SQLite backends:
// a key-value slot for snapshots plus the check and practice logs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error

	RecordCheck(ctx context.Context, c PostureCheck) error
	ListChecks(ctx context.Context, limit int) ([]PostureCheck, error)

	AddPracticeSession(ctx context.Context, p PracticeSession) (int64, error)
	ListPracticeSessions(ctx context.Context, limit int) ([]PracticeSession, error)

	// Reset deletes every stored row but keeps the schema.
	Reset(ctx context.Context) error
	Close(ctx context.Context)
}

// Open picks a backend from the connection string: postgres:// and
// postgresql:// URLs go to Postgres, anything else is a SQLite file path.
func Open(ctx context.Context, dsn string) (Store, error) {
	if IsPostgres(dsn) {
		return NewPostgres(ctx, dsn)
	}
	return NewSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
}

// IsPostgres reports whether dsn names a Postgres server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
