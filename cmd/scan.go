package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/andresmejia3/backbeat/internal/monitor"
	"github.com/andresmejia3/backbeat/internal/ui"
	"github.com/andresmejia3/backbeat/internal/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var scanOpts Options

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Score a recorded practice video",
	Long:  "Runs every Nth frame of a video through the pose engine and records the session as if it were live.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateScanFlags(&scanOpts); err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return runScan(cmd, scanOpts)
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanOpts.InputPath, "input", "i", "", "Path to video file (required)")
	scanCmd.Flags().IntVarP(&scanOpts.NthFrame, "nth-frame", "n", 10, "Score every Nth frame")
	scanCmd.Flags().IntVar(&scanOpts.MaxFrameFailures, "max-failures", -1, "Consecutive failed frames before giving up, 0 = never (default: config monitor.max_frame_failures)")
	scanCmd.Flags().StringVar(&scanOpts.WorkerScript, "worker", "", "Pose worker script (default: config worker.script)")
	scanCmd.Flags().BoolVarP(&scanOpts.Quiet, "quiet", "q", false, "Hide the progress bar")
	scanCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, opts Options) error {
	ctx := cmd.Context()

	videoID, err := utils.SourceID(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to read video", err, nil)
		return err
	}
	fmt.Fprintf(os.Stderr, "📼 Processing Video ID: %s\n", videoID[:12])

	fps, err := utils.GetVideoFPS(opts.InputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Unknown frame rate, video timestamps disabled: %v\n", err)
	}
	if width, height, err := utils.GetVideoDimensions(opts.InputPath); err == nil {
		fmt.Fprintf(os.Stderr, "📐 %dx%d @ %.2f fps\n", width, height, fps)
		if height < minPoseHeight {
			fmt.Fprintf(os.Stderr, "⚠️  Below %dp the pose model often misses wrists and elbows\n", minPoseHeight)
		}
	}

	totalFrames := utils.GetTotalFrames(opts.InputPath)
	sampled := -1
	if totalFrames > 0 {
		sampled = (totalFrames + opts.NthFrame - 1) / opts.NthFrame
	}

	w, err := startWorker(opts)
	if err != nil {
		utils.ShowError("Failed to start pose worker", err, nil)
		return err
	}
	defer w.Close()

	frames, err := monitor.NewCapture(ctx, utils.Source{Path: opts.InputPath, EveryNth: opts.NthFrame})
	if err != nil {
		utils.ShowError("Failed to open video", err, nil)
		return err
	}

	// Recorded input is scored as fast as the worker allows
	mc := monitorConfig(opts)
	mc.Rate = 0
	d := newDetector(ctx, frames, w, mc)
	if fps > 0 {
		d.FrameOffset = monitor.VideoOffset(fps, opts.NthFrame)
	}
	d.Session.StartSession(ctx)

	bar := progressbar.NewOptions(sampled,
		progressbar.OptionSetDescription("🥁 Backbeat Scanning"),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!opts.Quiet),
	)

	var scored, failed int
	var worst worstMoment
	d.OnCycle = func(c monitor.Cycle) {
		scored++
		worst.observe(c)
		bar.Add(1)
	}
	d.OnFrameError = func(err error) {
		failed++
		bar.Add(1)
	}

	err = d.Run(ctx)
	bar.Finish()
	fmt.Fprintf(os.Stderr, "\n🏁 Scan Complete. Scored %d frames (%d failed) out of %d total.\n", scored, failed, totalFrames)
	if err != nil {
		reportRunError(err, w)
		return err
	}

	if line := worst.String(); line != "" {
		fmt.Fprintln(os.Stderr, line)
	}
	fmt.Println(ui.RenderStats(d.Session.Snapshot()))
	return nil
}

// minPoseHeight is the smallest frame height the pose model handles reliably.
const minPoseHeight = 240

// worstMoment remembers the lowest-scoring cycle of a scan.
type worstMoment struct {
	cycle monitor.Cycle
	seen  bool
}

func (m *worstMoment) observe(c monitor.Cycle) {
	if !m.seen || c.Result.Score < m.cycle.Result.Score {
		m.cycle, m.seen = c, true
	}
}

func (m *worstMoment) String() string {
	if !m.seen {
		return ""
	}
	where := fmt.Sprintf("frame %d", m.cycle.Frame)
	if m.cycle.HasOffset {
		where = ui.Clock(int(m.cycle.Offset / time.Second))
	}
	return fmt.Sprintf("📉 Lowest score %.1f at %s: %s", m.cycle.Result.Score, where, m.cycle.Result.Summary())
}

func validateScanFlags(opts *Options) error {
	if opts.InputPath == "" {
		return fmt.Errorf("--input is required")
	}
	if opts.NthFrame < 1 {
		return fmt.Errorf("--nth-frame must be at least 1, got %d", opts.NthFrame)
	}
	if _, err := os.Stat(opts.InputPath); err != nil {
		return fmt.Errorf("cannot read input: %w", err)
	}
	return nil
}
