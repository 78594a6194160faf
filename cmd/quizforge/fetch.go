package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhishek622/quizforge/pkg/model"
)

var (
	fetchTopic      string
	fetchCount      int
	fetchDifficulty string
	fetchNoSave     bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one batch of questions and ingest it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, cleanup, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if !app.cfg.HasTopic(fetchTopic) {
			return fmt.Errorf("unknown topic %q (see 'quizforge topics')", fetchTopic)
		}

		difficulty := model.Difficulty(fetchDifficulty)
		candidates, err := app.fetcher.FetchBatch(ctx, fetchTopic, fetchCount, difficulty)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			fmt.Println("The model returned no parseable questions; nothing to ingest.")
			return nil
		}

		printQuestions(candidates)

		if fetchNoSave {
			fmt.Printf("%d candidate(s) fetched, not saved (--no-save)\n", len(candidates))
			return nil
		}

		res, err := app.store.Save(ctx, fetchTopic, candidates)
		if err != nil {
			return err
		}
		printSaveResult(fetchTopic, res)
		return nil
	},
}

func printQuestions(questions []model.Question) {
	bold := color.New(color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	for i, q := range questions {
		fmt.Printf("%s %s\n", bold(fmt.Sprintf("%d.", i+1)), q.Text)
		fmt.Printf("   %s %s   %s %v\n", gray("difficulty:"), q.Difficulty, gray("tags:"), q.Tags)
		for j, opt := range q.Options {
			marker := " "
			if opt == q.Answer {
				marker = "*"
			}
			fmt.Printf("   %s %c) %s\n", marker, 'a'+j, opt)
		}
		fmt.Println()
	}
}

func printSaveResult(topic string, res model.SaveResult) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Printf("%s saved, %s duplicates skipped; %d question(s) now stored for %q\n",
		green(fmt.Sprintf("%d", res.Saved)),
		yellow(fmt.Sprintf("%d", res.Duplicates)),
		res.Total, topic,
	)
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchTopic, "topic", "t", "", "topic to fetch questions for (required)")
	fetchCmd.Flags().IntVarP(&fetchCount, "count", "n", 5, "number of questions to request")
	fetchCmd.Flags().StringVarP(&fetchDifficulty, "difficulty", "d", "mixed", "easy, medium, hard or mixed")
	fetchCmd.Flags().BoolVar(&fetchNoSave, "no-save", false, "print the batch without ingesting it")
	_ = fetchCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(fetchCmd)
}
