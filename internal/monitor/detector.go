// Package monitor runs the detection loop: read a frame, estimate the pose,
// score it, record the score and hand the cycle to the renderer.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andresmejia3/backbeat/internal/monitoring"
	"github.com/andresmejia3/backbeat/internal/posture"
	"github.com/andresmejia3/backbeat/internal/session"
	"github.com/andresmejia3/backbeat/internal/store"
	"github.com/andresmejia3/backbeat/internal/timeutil"
	"github.com/andresmejia3/backbeat/internal/types"
	"github.com/andresmejia3/backbeat/internal/worker"
)

// ErrAlreadyRunning is returned by Run while another loop is active.
var ErrAlreadyRunning = errors.New("detection loop already running")

// FrameSource yields encoded frames. Next returns io.EOF when the input ends.
type FrameSource interface {
	Next(ctx context.Context) (types.FrameTask, error)
	Close() error
}

// PoseSource turns one frame into keypoints. Errors for which
// worker.IsFrameError is true are retried on the next cycle.
type PoseSource interface {
	Estimate(ctx context.Context, frame []byte) ([]types.Keypoint, error)
}

// CheckLogger receives the periodic posture check.
type CheckLogger interface {
	RecordCheck(ctx context.Context, c store.PostureCheck) error
}

// Config controls loop pacing and failure tolerance.
type Config struct {
	// Rate is the target number of cycles per second. Zero runs as fast as
	// frames arrive.
	Rate float64 `yaml:"rate"`
	// MaxFrameFailures is how many consecutive per-frame failures end the
	// loop. Zero never gives up.
	MaxFrameFailures int `yaml:"max_frame_failures"`
	// CheckInterval is the spacing of logged posture checks.
	CheckInterval time.Duration `yaml:"check_interval"`
}

// DefaultConfig returns 25 cycles per second, 50 tolerated failures and one
// check per second.
func DefaultConfig() Config {
	return Config{Rate: 25, MaxFrameFailures: 50, CheckInterval: time.Second}
}

// Interval is the time budget of one cycle.
func (c Config) Interval() time.Duration {
	if c.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.Rate)
}

// Cycle is everything produced by one pass of the loop.
type Cycle struct {
	Frame     int
	At        time.Time
	Keypoints []types.Keypoint
	Result    posture.ScoreResult
	Angles    posture.AngleSet
	Drift     posture.Drift
	HasDrift  bool
	Elapsed   int
	Stats     session.Stats
	// Offset is the frame's position in a recorded input; HasOffset is
	// false for live sources.
	Offset    time.Duration
	HasOffset bool
}

// Detector owns the single detection loop of the process.
type Detector struct {
	Frames     FrameSource
	Poses      PoseSource
	Engine     *posture.Engine
	Session    *session.Aggregator
	Checks     CheckLogger
	Calibrator *posture.Calibrator
	Clock      timeutil.Clock
	Config     Config

	// OnCycle is called after every scored frame.
	OnCycle func(Cycle)
	// OnFrameError is called for every per-frame failure that is retried.
	OnFrameError func(error)
	// FrameOffset, if set, maps a frame index to its position in the input.
	FrameOffset func(frame int) time.Duration

	running atomic.Bool
	active  atomic.Bool
}

// Running reports whether the loop accepts new cycles.
func (d *Detector) Running() bool {
	return d.running.Load()
}

// Stop asks the loop to finish. A cycle already waiting on the pose source
// completes but its result is dropped.
func (d *Detector) Stop() {
	d.running.Store(false)
}

// Start claims the loop and runs it in a goroutine. The returned channel
// yields the loop's result. A Stop issued after Start returns is honoured
// even if the goroutine has not been scheduled yet.
func (d *Detector) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	if !d.acquire() {
		done <- ErrAlreadyRunning
		return done
	}
	go func() { done <- d.loop(ctx) }()
	return done
}

// Run drives the loop until Stop, cancellation of ctx, the end of the input,
// or a session-level failure. Only the last is returned as an error. The frame
// source is closed on return.
func (d *Detector) Run(ctx context.Context) error {
	if !d.acquire() {
		return ErrAlreadyRunning
	}
	return d.loop(ctx)
}

// acquire marks the detector active and running, or reports false when a
// loop already owns it.
func (d *Detector) acquire() bool {
	if !d.active.CompareAndSwap(false, true) {
		return false
	}
	d.running.Store(true)
	return true
}

func (d *Detector) loop(ctx context.Context) error {
	defer d.active.Store(false)
	defer d.Frames.Close()
	defer d.running.Store(false)

	if d.Clock == nil {
		d.Clock = timeutil.RealClock{}
	}

	interval := d.Config.Interval()
	failures := 0
	var lastCheck time.Time

	for d.running.Load() && ctx.Err() == nil {
		start := d.Clock.Now()

		task, err := d.Frames.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("capture: %w", err)
		}
		if !d.running.Load() {
			return nil
		}

		keypoints, err := d.Poses.Estimate(ctx, task.Data)
		if ctx.Err() != nil || !d.running.Load() {
			return nil
		}
		if err != nil {
			if !worker.IsFrameError(err) {
				return fmt.Errorf("pose estimation: %w", err)
			}
			failures++
			if d.OnFrameError != nil {
				d.OnFrameError(err)
			}
			if d.Config.MaxFrameFailures > 0 && failures >= d.Config.MaxFrameFailures {
				return fmt.Errorf("giving up after %d consecutive frame failures: %w", failures, err)
			}
		} else {
			failures = 0
			c := d.score(ctx, task.Index, keypoints)
			if d.Checks != nil && (lastCheck.IsZero() || d.Clock.Since(lastCheck) >= d.Config.CheckInterval) {
				lastCheck = c.At
				d.logCheck(ctx, c)
			}
			if d.OnCycle != nil {
				d.OnCycle(c)
			}
		}

		if wait := interval - d.Clock.Since(start); interval > 0 && wait > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-d.Clock.After(wait):
			}
		}
	}
	return nil
}

func (d *Detector) score(ctx context.Context, frame int, keypoints []types.Keypoint) Cycle {
	res := d.Engine.Score(keypoints)
	d.Session.RecordScore(ctx, res.Score)

	c := Cycle{
		Frame:     frame,
		At:        d.Clock.Now(),
		Keypoints: keypoints,
		Result:    res,
		Angles:    d.Engine.Angles(),
		Elapsed:   d.Session.ElapsedSeconds(),
		Stats:     d.Session.Snapshot().Stats,
	}
	if d.Calibrator != nil {
		c.Drift, c.HasDrift = d.Calibrator.Drift(keypoints)
	}
	if d.FrameOffset != nil {
		c.Offset, c.HasOffset = d.FrameOffset(frame), true
	}
	return c
}

func (d *Detector) logCheck(ctx context.Context, c Cycle) {
	feedback := strings.Join(c.Result.Feedback, "; ")
	if c.HasOffset {
		feedback = fmt.Sprintf("[%s] %s", formatOffset(c.Offset), feedback)
	}
	err := d.Checks.RecordCheck(ctx, store.PostureCheck{
		SessionID: d.Session.Snapshot().SessionID,
		Score:     c.Result.Score,
		Feedback:  feedback,
		CheckedAt: c.At,
	})
	if err != nil {
		monitoring.Logf("monitor: record posture check: %v", err)
	}
}

// VideoOffset maps capture frame indexes (1-based, one kept per nth source
// frame) to their position in a file playing at fps.
func VideoOffset(fps float64, nth int) func(frame int) time.Duration {
	if nth < 1 {
		nth = 1
	}
	return func(frame int) time.Duration {
		if fps <= 0 || frame < 1 {
			return 0
		}
		return time.Duration(float64((frame-1)*nth) * float64(time.Second) / fps)
	}
}

// formatOffset renders an offset as mm:ss.
func formatOffset(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
