package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	// Key-value slot
	_, err := s.Get(ctx, "drummerPostureSession")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "drummerPostureSession", []byte(`{"v":1}`)))
	require.NoError(t, s.Set(ctx, "drummerPostureSession", []byte(`{"v":2}`)))
	got, err := s.Get(ctx, "drummerPostureSession")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(got))

	// Posture check log, newest first
	base := time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)
	for i, score := range []float64{9, 7.5, 4} {
		require.NoError(t, s.RecordCheck(ctx, PostureCheck{
			SessionID: "session-a",
			Score:     score,
			Feedback:  "Excellent drumming posture!",
			CheckedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	checks, err := s.ListChecks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.Equal(t, 4.0, checks[0].Score)
	assert.Equal(t, 7.5, checks[1].Score)
	assert.True(t, checks[0].CheckedAt.Equal(base.Add(2*time.Second)), "checked_at = %v", checks[0].CheckedAt)
	assert.Equal(t, "session-a", checks[0].SessionID)

	// Practice log
	id, err := s.AddPracticeSession(ctx, PracticeSession{
		DurationMinutes: 45, TempoBPM: 120, Notes: "paradiddles", CreatedAt: base,
	})
	require.NoError(t, err)
	assert.Positive(t, id)
	_, err = s.AddPracticeSession(ctx, PracticeSession{DurationMinutes: 20, CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	sessions, err := s.ListPracticeSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, 20, sessions[0].DurationMinutes)
	assert.Equal(t, "paradiddles", sessions[1].Notes)
	assert.Equal(t, 120, sessions[1].TempoBPM)

	// Reset keeps the schema usable
	require.NoError(t, s.Reset(ctx))
	_, err = s.Get(ctx, "drummerPostureSession")
	assert.ErrorIs(t, err, ErrNotFound)
	checks, err = s.ListChecks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, checks)
	require.NoError(t, s.Set(ctx, "calibrationReference", []byte(`{}`)))
}
