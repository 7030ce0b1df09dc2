package cmd

import (
	"fmt"
	"os"

	"github.com/andresmejia3/backbeat/internal/monitor"
	"github.com/andresmejia3/backbeat/internal/ui"
	"github.com/andresmejia3/backbeat/internal/utils"
	"github.com/spf13/cobra"
)

var liveOpts Options

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Score your posture from the webcam until Ctrl+C",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runLive(cmd, liveOpts)
	},
}

func init() {
	liveCmd.Flags().StringVarP(&liveOpts.Device, "device", "d", "", "Camera device (default: config camera.device, else the platform's first camera)")
	liveCmd.Flags().Float64VarP(&liveOpts.Rate, "rate", "r", -1, "Detection cycles per second (default: config monitor.rate)")
	liveCmd.Flags().IntVar(&liveOpts.MaxFrameFailures, "max-failures", -1, "Consecutive failed frames before giving up, 0 = never (default: config monitor.max_frame_failures)")
	liveCmd.Flags().StringVar(&liveOpts.WorkerScript, "worker", "", "Pose worker script (default: config worker.script)")
	liveCmd.Flags().BoolVarP(&liveOpts.Quiet, "quiet", "q", false, "Only print the session summary")
	rootCmd.AddCommand(liveCmd)
}

func cameraSource(opts Options) utils.Source {
	device := opts.Device
	if device == "" {
		device = Cfg.Camera.Device
	}
	if device == "" {
		device = utils.DefaultCamera()
	}
	return utils.Source{
		Path:      device,
		Camera:    true,
		FrameRate: Cfg.Camera.FrameRate,
		Width:     Cfg.Camera.Width,
		Height:    Cfg.Camera.Height,
	}
}

func runLive(cmd *cobra.Command, opts Options) error {
	ctx := cmd.Context()
	mc := monitorConfig(opts)
	if err := validateRate(mc.Rate); err != nil {
		return err
	}

	w, err := startWorker(opts)
	if err != nil {
		utils.ShowError("Failed to start pose worker", err, nil)
		return err
	}
	defer w.Close()

	src := cameraSource(opts)
	fmt.Fprintf(os.Stderr, "📷 Opening camera %s...\n", src.Path)
	frames, err := monitor.NewCapture(ctx, src)
	if err != nil {
		utils.ShowError("Failed to open camera", err, nil)
		return err
	}

	d := newDetector(ctx, frames, w, mc)
	d.Session.StartSession(ctx)

	r := ui.NewRenderer(os.Stdout)
	if !opts.Quiet {
		d.OnCycle = r.Render
	}
	d.OnFrameError = func(err error) {
		if !opts.Quiet {
			fmt.Fprintf(os.Stderr, "\n⚠️  %v\n", err)
		}
	}

	fmt.Fprintln(os.Stderr, "🥁 Detecting. Press Ctrl+C to stop.")
	err = d.Run(ctx)
	r.Finish()

	fmt.Println(ui.RenderStats(d.Session.Snapshot()))
	if err != nil {
		reportRunError(err, w)
		return err
	}
	return nil
}

func validateRate(rate float64) error {
	if rate < 0 {
		return fmt.Errorf("rate must be >= 0, got %g", rate)
	}
	if rate > 60 {
		return fmt.Errorf("rate above 60 cycles/s is faster than any camera, got %g", rate)
	}
	return nil
}
