package cmd

import (
	"fmt"
	"os"

	"github.com/andresmejia3/backbeat/internal/posture"
	"github.com/andresmejia3/backbeat/internal/ui"
	"github.com/andresmejia3/backbeat/internal/utils"
	"github.com/spf13/cobra"
)

var scoreOpts Options

var scoreCmd = &cobra.Command{
	Use:         "score <image.jpg>",
	Short:       "Score the posture in a single photo",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		frame, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("cannot read image: %w", err)
		}

		w, err := startWorker(scoreOpts)
		if err != nil {
			utils.ShowError("Failed to start pose worker", err, nil)
			return err
		}
		defer w.Close()

		keypoints, err := w.Estimate(cmd.Context(), frame)
		if err != nil {
			utils.ShowError("Pose estimation failed", err, w.Cmd)
			return err
		}

		engine := posture.NewEngine(Cfg.Scoring)
		res := engine.Score(keypoints)
		fmt.Println(ui.RenderScore(res, engine.Angles()))
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreOpts.WorkerScript, "worker", "", "Pose worker script (default: config worker.script)")
	rootCmd.AddCommand(scoreCmd)
}
