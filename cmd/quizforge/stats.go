package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhishek622/quizforge/pkg/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-topic corpus sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, cleanup, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := app.store.Stats(ctx)
		if err != nil {
			return err
		}
		printTopicStats(stats)
		return nil
	},
}

func printTopicStats(stats []model.TopicStats) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Printf("%s\n", cyan("Stored questions by topic"))

	if len(stats) == 0 {
		fmt.Printf("  %s\n", gray("corpus is empty"))
		return
	}

	total := 0
	for _, s := range stats {
		fmt.Printf("  %-14s %d\n", s.Topic, s.Count)
		total += s.Count
	}
	fmt.Printf("  %-14s %d\n", "total", total)
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the configured topic set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, cleanup, err := loadEnv()
		if err != nil {
			return err
		}
		defer cleanup()

		for _, t := range cfg.Topics {
			fmt.Println(t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(topicsCmd)
}
