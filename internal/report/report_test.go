package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/andresmejia3/backbeat/internal/session"
	"github.com/andresmejia3/backbeat/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierCounts(t *testing.T) {
	got := tierCounts([]float64{10, 8.5, 8.4, 7, 6.9, 5, 4, 3, 2.9, 1})
	want := []int{2, 2, 2, 2, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tierCounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite(t *testing.T) {
	at := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	d := Data{
		Snapshot: session.Snapshot{
			SessionID:    "s1",
			ScoreHistory: []float64{9, 8, 6.5},
			Stats:        session.Stats{Average: 7.8, Peak: 9, SampleCount: 3, GoodPercent: 66.7},
		},
		Checks: []store.PostureCheck{
			{Score: 6.5, Feedback: "Moderate posture issues detected", CheckedAt: at.Add(2 * time.Second)},
			{Score: 9, Feedback: "Excellent drumming posture!", CheckedAt: at},
		},
		Practice:    []store.PracticeSession{{DurationMinutes: 30, TempoBPM: 110, Notes: "grooves", CreatedAt: at}},
		GeneratedAt: at,
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, d))

	html := buf.String()
	for _, want := range []string{
		"Posture score, last 3 samples",
		"average 7.8",
		"Samples per tier",
		"Posture checks",
		"Practice log",
		"echarts",
	} {
		assert.Contains(t, html, want)
	}
}

func TestWrite_EmptySessionOmitsOptionalCharts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Data{}))

	html := buf.String()
	assert.Contains(t, html, "Posture score, last 0 samples")
	assert.NotContains(t, html, "Posture checks")
	assert.NotContains(t, html, "Practice log")
}
