package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhishek622/quizforge/internal/controller"
	"github.com/abhishek622/quizforge/pkg/model"
)

var (
	runTopic      string
	runTarget     int
	runBatchSize  int
	runDifficulty string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recursively fetch until a target number of new questions is saved",
	Long: `Run a fetch session that keeps requesting batches from the model until the
target number of newly saved questions is reached, the failure budget is
exhausted, or the session is interrupted. Ctrl-C stops gracefully after the
batch in flight.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, cleanup, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if !app.cfg.HasTopic(runTopic) {
			return fmt.Errorf("unknown topic %q (see 'quizforge topics')", runTopic)
		}

		ctrl := app.newController()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			fmt.Println("\nstopping after the current batch...")
			ctrl.Stop()
		}()

		final, err := ctrl.Run(ctx, controller.Request{
			Topic:      runTopic,
			Target:     runTarget,
			Difficulty: model.Difficulty(runDifficulty),
			BatchSize:  runBatchSize,
		}, printProgress)
		if err != nil {
			return err
		}

		printFinalStats(final)
		return nil
	},
}

func printProgress(p controller.Progress) {
	fmt.Printf("\r  %d/%d (%.0f%%) | batches %d, fetched %d, duplicates %d   ",
		p.Current, p.Target, p.ProgressPercent,
		p.Stats.BatchesCompleted, p.Stats.TotalFetched, p.Stats.TotalDuplicates,
	)
}

func printFinalStats(final controller.FinalStats) {
	fmt.Println()

	header := color.New(color.FgGreen, color.Bold).SprintFunc()
	if !final.Success {
		header = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	fmt.Printf("%s\n", header(fmt.Sprintf("session %s", final.State)))
	fmt.Printf("  saved:      %d/%d (%.0f%%)\n", final.FinalSaved, final.TargetCount, final.ProgressPercent)
	fmt.Printf("  batches:    %d\n", final.Stats.BatchesCompleted)
	fmt.Printf("  fetched:    %d\n", final.Stats.TotalFetched)
	fmt.Printf("  duplicates: %d\n", final.Stats.TotalDuplicates)
	fmt.Printf("  duration:   %.1f min\n", final.DurationMinutes)
}

func init() {
	runCmd.Flags().StringVarP(&runTopic, "topic", "t", "", "topic to fetch questions for (required)")
	runCmd.Flags().IntVarP(&runTarget, "target", "c", 20, "number of newly saved questions to reach")
	runCmd.Flags().IntVarP(&runBatchSize, "batch-size", "b", 10, "questions requested per batch")
	runCmd.Flags().StringVarP(&runDifficulty, "difficulty", "d", "mixed", "easy, medium, hard or mixed")
	_ = runCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(runCmd)
}
