// Package session keeps the rolling window of posture scores for the current
// practice session and persists it after every update.
package session

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/andresmejia3/backbeat/internal/monitoring"
	"github.com/andresmejia3/backbeat/internal/store"
	"github.com/andresmejia3/backbeat/internal/timeutil"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// Capacity is the number of most recent scores kept in the window.
	Capacity = 200
	// GoodScore is the threshold for "good posture" percentages.
	GoodScore = 7.0
)

// KV is the key-value slot the snapshot is persisted to. Get returns
// store.ErrNotFound for a key that was never written.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Aggregator maintains the rolling score window. It is safe for concurrent use,
// although the detection loop is its only writer.
type Aggregator struct {
	mu    sync.Mutex
	kv    KV
	clock timeutil.Clock
	snap  Snapshot
}

// NewAggregator loads the prior snapshot from kv. A missing or unreadable
// snapshot starts an empty one; neither is reported to the caller.
func NewAggregator(ctx context.Context, kv KV, clock timeutil.Clock) *Aggregator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	a := &Aggregator{kv: kv, clock: clock}

	data, err := kv.Get(ctx, SnapshotKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		monitoring.Logf("session: load snapshot: %v", err)
	default:
		snap, err := Decode(data)
		if err != nil {
			monitoring.Logf("session: discarding stored snapshot: %v", err)
			break
		}
		a.snap = snap
	}
	return a
}

// StartSession clears the window and starts the clock for a new session.
func (a *Aggregator) StartSession(ctx context.Context) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.snap = Snapshot{
		SessionID:     uuid.NewString(),
		StartTime:     a.clock.Now(),
		ScoreHistory:  make([]float64, 0, Capacity),
		TotalSessions: a.snap.TotalSessions + 1,
	}
	a.persist(ctx)
	return a.copy()
}

// RecordScore appends a score, evicting the oldest past Capacity, refreshes
// the window statistics and writes the snapshot. A failed write is logged and
// otherwise ignored.
func (a *Aggregator) RecordScore(ctx context.Context, score float64) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		monitoring.Logf("session: dropping non-finite score %v", score)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snap.StartTime.IsZero() {
		a.snap.StartTime = a.clock.Now()
	}
	if a.snap.SessionID == "" {
		a.snap.SessionID = uuid.NewString()
	}

	a.snap.ScoreHistory = append(a.snap.ScoreHistory, score)
	if n := len(a.snap.ScoreHistory); n > Capacity {
		a.snap.ScoreHistory = append(a.snap.ScoreHistory[:0], a.snap.ScoreHistory[n-Capacity:]...)
	}

	h := a.snap.ScoreHistory
	a.snap.Stats = Stats{
		Average:     stat.Mean(h, nil),
		Peak:        floats.Max(h),
		SampleCount: len(h),
		GoodPercent: percentAtLeast(h, GoodScore),
	}
	a.snap.DurationSeconds = a.elapsed()
	a.persist(ctx)
}

// ElapsedSeconds returns whole seconds since the session started, or 0 when
// no session has started.
func (a *Aggregator) ElapsedSeconds() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elapsed()
}

// PercentGoodPosture returns the share of windowed scores at or above
// threshold, in percent. An empty window is 0%.
func (a *Aggregator) PercentGoodPosture(threshold float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return percentAtLeast(a.snap.ScoreHistory, threshold)
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.copy()
}

func (a *Aggregator) elapsed() int {
	if a.snap.StartTime.IsZero() {
		return 0
	}
	return int(a.clock.Since(a.snap.StartTime).Seconds())
}

func (a *Aggregator) copy() Snapshot {
	s := a.snap
	s.ScoreHistory = append([]float64(nil), a.snap.ScoreHistory...)
	return s
}

func (a *Aggregator) persist(ctx context.Context) {
	data, err := Encode(a.snap)
	if err != nil {
		monitoring.Logf("session: encode snapshot: %v", err)
		return
	}
	if err := a.kv.Set(ctx, SnapshotKey, data); err != nil {
		monitoring.Logf("session: save snapshot: %v", err)
	}
}

func percentAtLeast(scores []float64, threshold float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	n := 0
	for _, s := range scores {
		if s >= threshold {
			n++
		}
	}
	return float64(n) / float64(len(scores)) * 100
}
