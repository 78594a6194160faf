package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhishek622/quizforge/internal/controller"
	"github.com/abhishek622/quizforge/pkg/model"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Menu-driven fetch workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, cleanup, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		rl, err := readline.New("quizforge> ")
		if err != nil {
			return err
		}
		defer rl.Close()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		for {
			fmt.Printf("\n%s\n", cyan("quizforge"))
			fmt.Println("  1) fetch one batch")
			fmt.Println("  2) recursive fetch to a target")
			fmt.Println("  3) corpus stats")
			fmt.Println("  4) export a topic backup")
			fmt.Println("  5) list backups")
			fmt.Println("  0) quit")

			choice, err := rl.Readline()
			if err != nil {
				// Ctrl-C / Ctrl-D leave the menu.
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}

			switch strings.TrimSpace(choice) {
			case "1":
				err = app.interactiveFetch(cmd, rl)
			case "2":
				err = app.interactiveRun(cmd, rl)
			case "3":
				err = app.interactiveStats(cmd)
			case "4":
				err = app.interactiveBackup(cmd, rl)
			case "5":
				err = app.interactiveBackups()
			case "0", "q", "quit", "exit":
				return nil
			default:
				continue
			}
			if err != nil {
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					continue
				}
				fmt.Printf("error: %v\n", err)
			}
		}
	},
}

func (app *application) interactiveFetch(cmd *cobra.Command, rl *readline.Instance) error {
	topic, err := app.promptTopic(rl)
	if err != nil {
		return err
	}
	difficulty, err := promptDifficulty(rl)
	if err != nil {
		return err
	}
	count, err := promptInt(rl, "how many questions [5]: ", 5)
	if err != nil {
		return err
	}

	candidates, err := app.fetcher.FetchBatch(cmd.Context(), topic, count, difficulty)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("the model returned no parseable questions")
		return nil
	}
	printQuestions(candidates)

	res, err := app.store.Save(cmd.Context(), topic, candidates)
	if err != nil {
		return err
	}
	printSaveResult(topic, res)
	return nil
}

func (app *application) interactiveRun(cmd *cobra.Command, rl *readline.Instance) error {
	topic, err := app.promptTopic(rl)
	if err != nil {
		return err
	}
	difficulty, err := promptDifficulty(rl)
	if err != nil {
		return err
	}
	target, err := promptInt(rl, "target newly saved questions [20]: ", 20)
	if err != nil {
		return err
	}
	batchSize, err := promptInt(rl,
		fmt.Sprintf("batch size %v [10]: ", app.cfg.Fetch.AllowedBatchSizes), 10)
	if err != nil {
		return err
	}

	ctrl := app.newController()
	final, err := ctrl.Run(cmd.Context(), controller.Request{
		Topic:      topic,
		Target:     target,
		Difficulty: difficulty,
		BatchSize:  batchSize,
	}, printProgress)
	if err != nil {
		return err
	}
	printFinalStats(final)
	return nil
}

func (app *application) interactiveBackup(cmd *cobra.Command, rl *readline.Instance) error {
	topic, err := app.promptTopic(rl)
	if err != nil {
		return err
	}
	return app.exportTopic(cmd.Context(), topic)
}

func (app *application) interactiveStats(cmd *cobra.Command) error {
	stats, err := app.store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	printTopicStats(stats)
	return nil
}

func (app *application) interactiveBackups() error {
	locations, err := app.backup.List()
	if err != nil {
		return err
	}
	printBackupLocations(locations)
	return nil
}

func (app *application) promptTopic(rl *readline.Instance) (string, error) {
	fmt.Printf("topics: %s\n", strings.Join(app.cfg.Topics, ", "))
	for {
		line, err := prompt(rl, "topic: ")
		if err != nil {
			return "", err
		}
		if app.cfg.HasTopic(line) {
			return line, nil
		}
		fmt.Printf("unknown topic %q\n", line)
	}
}

func promptDifficulty(rl *readline.Instance) (model.Difficulty, error) {
	for {
		line, err := prompt(rl, "difficulty (easy/medium/hard/mixed) [mixed]: ")
		if err != nil {
			return "", err
		}
		if line == "" {
			return model.DifficultyMixed, nil
		}
		d := model.Difficulty(strings.ToLower(line))
		if d.ValidRequest() {
			return d, nil
		}
		fmt.Printf("invalid difficulty %q\n", line)
	}
}

func promptInt(rl *readline.Instance, label string, def int) (int, error) {
	for {
		line, err := prompt(rl, label)
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 {
			fmt.Printf("expected a positive number, got %q\n", line)
			continue
		}
		return n, nil
	}
}

func prompt(rl *readline.Instance, label string) (string, error) {
	rl.SetPrompt(label)
	defer rl.SetPrompt("quizforge> ")
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
