package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andresmejia3/backbeat/internal/monitor"
	"github.com/andresmejia3/backbeat/internal/posture"
	"github.com/andresmejia3/backbeat/internal/session"
	"github.com/andresmejia3/backbeat/internal/utils"
	"github.com/andresmejia3/backbeat/internal/worker"
	"github.com/spf13/cobra"
)

var calibrateOpts Options

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Record your preferred seated position as the reference",
	Long:  "Sit the way you want to play, facing the camera with shoulders and hips in view. The reference is shown as drift during live sessions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if calibrateOpts.Attempts < 1 {
			return fmt.Errorf("--attempts must be at least 1, got %d", calibrateOpts.Attempts)
		}
		cmd.SilenceUsage = true
		return runCalibrate(cmd, calibrateOpts)
	},
}

func init() {
	calibrateCmd.Flags().StringVarP(&calibrateOpts.Device, "device", "d", "", "Camera device (default: config camera.device)")
	calibrateCmd.Flags().IntVarP(&calibrateOpts.Attempts, "attempts", "a", 30, "Frames to try before giving up")
	calibrateCmd.Flags().StringVar(&calibrateOpts.WorkerScript, "worker", "", "Pose worker script (default: config worker.script)")
	rootCmd.AddCommand(calibrateCmd)
}

func runCalibrate(cmd *cobra.Command, opts Options) error {
	ctx := cmd.Context()

	w, err := startWorker(opts)
	if err != nil {
		utils.ShowError("Failed to start pose worker", err, nil)
		return err
	}
	defer w.Close()

	frames, err := monitor.NewCapture(ctx, cameraSource(opts))
	if err != nil {
		utils.ShowError("Failed to open camera", err, nil)
		return err
	}
	defer frames.Close()

	fmt.Fprintln(os.Stderr, "🎯 Hold your playing position...")
	ref, err := captureReference(ctx, frames, w, posture.NewCalibrator(nil), opts.Attempts)
	if err != nil {
		utils.ShowError("Calibration failed", err, nil)
		return err
	}

	if err := session.SaveCalibration(ctx, DB, ref); err != nil {
		return fmt.Errorf("failed to save calibration: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✅ Calibrated: shoulders at y=%.0f, seat at y=%.0f (shoulder width %.0fpx)\n",
		ref.ShoulderLevelY, ref.SeatLevelY, ref.ShoulderWidth)
	return nil
}

// captureReference tries up to attempts frames and returns the first complete
// reference. The last calibration error is returned when none succeeds.
func captureReference(ctx context.Context, frames monitor.FrameSource, poses monitor.PoseSource, c *posture.Calibrator, attempts int) (posture.CalibrationReference, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		task, err := frames.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return posture.CalibrationReference{}, err
		}
		keypoints, err := poses.Estimate(ctx, task.Data)
		if err != nil {
			if worker.IsFrameError(err) {
				lastErr = err
				continue
			}
			return posture.CalibrationReference{}, err
		}
		ref, err := c.Capture(keypoints, time.Now())
		if err == nil {
			return ref, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no frames received from camera")
	}
	return posture.CalibrationReference{}, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
