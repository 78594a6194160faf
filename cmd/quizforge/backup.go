package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhishek622/quizforge/internal/backup"
	"github.com/abhishek622/quizforge/pkg/model"
)

// questionDifficultyMix summarizes an exported corpus: the single shared
// difficulty, or "mixed" when records differ.
func questionDifficultyMix(questions []model.Question) model.Difficulty {
	if len(questions) == 0 {
		return model.DifficultyMixed
	}
	first := questions[0].Difficulty
	for _, q := range questions[1:] {
		if q.Difficulty != first {
			return model.DifficultyMixed
		}
	}
	return first
}

var (
	backupTopic string
	backupAll   bool
	purgeDays   int
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export topic corpora to JSON backup files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if backupTopic == "" && !backupAll {
			return fmt.Errorf("either --topic or --all is required")
		}

		app, cleanup, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		topics := []string{backupTopic}
		if backupAll {
			topics = app.cfg.Topics
		}

		for _, topic := range topics {
			if !app.cfg.HasTopic(topic) {
				return fmt.Errorf("unknown topic %q (see 'quizforge topics')", topic)
			}
			if err := app.exportTopic(ctx, topic); err != nil {
				return err
			}
		}
		return nil
	},
}

// exportTopic writes one topic's corpus to a backup file; an empty corpus is
// skipped with a notice rather than producing an empty file.
func (app *application) exportTopic(ctx context.Context, topic string) error {
	questions, err := app.store.Questions(ctx, topic)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		fmt.Printf("skipping %q: no stored questions\n", topic)
		return nil
	}
	location, err := app.backup.Persist(topic, questions, backup.Metadata{
		Model:      app.llm.Model(),
		Difficulty: string(questionDifficultyMix(questions)),
		Source:     "export",
	})
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d question(s) to %s\n", len(questions), location)
	return nil
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backup files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, sugar, cleanup, err := loadEnv()
		if err != nil {
			return err
		}
		defer cleanup()

		b := backup.New(cfg.Backup.Dir, sugar)
		locations, err := b.List()
		if err != nil {
			return err
		}
		printBackupLocations(locations)
		return nil
	},
}

func printBackupLocations(locations []string) {
	if len(locations) == 0 {
		fmt.Println("no backups found")
		return
	}
	gray := color.New(color.FgHiBlack).SprintFunc()
	for _, location := range locations {
		line := location
		if info, err := os.Stat(location); err == nil {
			line = fmt.Sprintf("%s %s", location, gray(info.ModTime().Format("2006-01-02 15:04")))
		}
		fmt.Println(line)
	}
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Re-ingest a backup file through the dedup pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, cleanup, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		f, err := app.backup.Load(args[0])
		if err != nil {
			return err
		}
		if !app.cfg.HasTopic(f.Metadata.Topic) {
			return fmt.Errorf("backup topic %q is not in the configured topic set", f.Metadata.Topic)
		}

		res, err := app.store.Save(ctx, f.Metadata.Topic, f.Questions)
		if err != nil {
			return err
		}
		printSaveResult(f.Metadata.Topic, res)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete backup files older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, sugar, cleanup, err := loadEnv()
		if err != nil {
			return err
		}
		defer cleanup()

		days := purgeDays
		if days == 0 {
			days = cfg.Backup.RetentionDays
		}

		b := backup.New(cfg.Backup.Dir, sugar)
		removed, err := b.PurgeOlderThan(days)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d backup file(s) older than %d day(s)\n", removed, days)
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVarP(&backupTopic, "topic", "t", "", "topic to export")
	backupCmd.Flags().BoolVar(&backupAll, "all", false, "export every configured topic")
	purgeCmd.Flags().IntVar(&purgeDays, "days", 0, "retention window in days (default from config)")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(purgeCmd)
}
