// Package backup is the file-system safety net: topic corpora exported as
// JSON documents that can be re-ingested through the dedup pipeline later.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/abhishek622/quizforge/pkg/model"
)

// Metadata describes one backup file. The shape is load-bearing: restore
// must accept files written by any previous version of the tool.
type Metadata struct {
	Topic      string    `json:"topic"`
	Model      string    `json:"model"`
	Difficulty string    `json:"difficulty"`
	Timestamp  time.Time `json:"timestamp"`
	Count      int       `json:"count"`
	Source     string    `json:"source"`
}

type File struct {
	Metadata  Metadata         `json:"metadata"`
	Questions []model.Question `json:"questions"`
}

type Backup struct {
	dir string
	log *zap.SugaredLogger
}

func New(dir string, log *zap.SugaredLogger) *Backup {
	return &Backup{dir: dir, log: log}
}

// Persist writes one backup file and returns its location. Timestamp and
// count are stamped here; the caller supplies the rest of the metadata.
func (b *Backup) Persist(topic string, questions []model.Question, meta Metadata) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	meta.Topic = topic
	meta.Timestamp = time.Now().UTC()
	meta.Count = len(questions)
	if meta.Source == "" {
		meta.Source = "quizforge"
	}

	payload, err := json.MarshalIndent(File{Metadata: meta, Questions: questions}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}

	name := fmt.Sprintf("questions_%s_%s.json", topic, meta.Timestamp.Format("20060102T150405"))
	location := filepath.Join(b.dir, name)
	if err := os.WriteFile(location, payload, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	b.log.Infow("backup written", "location", location, "count", meta.Count)
	return location, nil
}

// List returns the locations of all backup files, oldest name first. A
// missing backup directory is an empty list, not an error.
func (b *Backup) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(b.dir, "questions_*.json"))
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Load reads one backup file back into memory.
func (b *Backup) Load(location string) (*File, error) {
	raw, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse backup %s: %w", location, err)
	}
	return &f, nil
}

// PurgeOlderThan deletes backup files whose modification time is older
// than the given number of days and returns how many were removed.
func (b *Backup) PurgeOlderThan(days int) (int, error) {
	if days < 1 {
		return 0, fmt.Errorf("purge window must be at least one day, got %d", days)
	}

	locations, err := b.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	removed := 0
	for _, location := range locations {
		info, err := os.Stat(location)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(location); err != nil {
				return removed, fmt.Errorf("remove backup %s: %w", location, err)
			}
			removed++
		}
	}
	if removed > 0 {
		b.log.Infow("old backups purged", "removed", removed, "days", days)
	}
	return removed, nil
}
