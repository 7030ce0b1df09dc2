package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/andresmejia3/backbeat/internal/monitor"
	"github.com/andresmejia3/backbeat/internal/posture"
	"github.com/andresmejia3/backbeat/internal/session"
	"github.com/andresmejia3/backbeat/internal/timeutil"
	"github.com/andresmejia3/backbeat/internal/utils"
	"github.com/andresmejia3/backbeat/internal/worker"
)

// startWorker launches the pose worker configured by opts and Cfg.
func startWorker(opts Options) (*worker.PoseWorker, error) {
	script := opts.WorkerScript
	if script == "" {
		script = Cfg.Worker.Script
	}
	fmt.Fprintln(os.Stderr, "🚀 Starting pose engine...")
	w, err := worker.NewPoseWorker(0, script, Cfg.Worker.Args...)
	if err != nil {
		return nil, err
	}
	w.Timeout = Cfg.Worker.Timeout
	return w, nil
}

// monitorConfig applies flag overrides on top of the config file.
func monitorConfig(opts Options) monitor.Config {
	mc := Cfg.Monitor
	if opts.Rate >= 0 {
		mc.Rate = opts.Rate
	}
	if opts.MaxFrameFailures >= 0 {
		mc.MaxFrameFailures = opts.MaxFrameFailures
	}
	return mc
}

// newDetector wires frames and poses to the scoring engine, the session
// aggregator and the stored calibration.
func newDetector(ctx context.Context, frames monitor.FrameSource, poses monitor.PoseSource, mc monitor.Config) *monitor.Detector {
	clock := timeutil.RealClock{}

	ref, err := session.LoadCalibration(ctx, DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Ignoring stored calibration: %v\n", err)
	}

	return &monitor.Detector{
		Frames:     frames,
		Poses:      poses,
		Engine:     posture.NewEngine(Cfg.Scoring),
		Session:    session.NewAggregator(ctx, DB, clock),
		Checks:     DB,
		Calibrator: posture.NewCalibrator(ref),
		Clock:      clock,
		Config:     mc,
	}
}

// reportRunError prints the boxed error for a failed detection loop,
// including the worker's captured stderr when it died.
func reportRunError(err error, w *worker.PoseWorker) {
	var cmd *utils.SafeCommand
	if w != nil && !errors.Is(err, context.Canceled) {
		cmd = w.Cmd
	}
	utils.ShowError("Detection stopped", err, cmd)
}
