// Package store owns the per-topic corpus: every candidate passes the
// duplicate detector before a write, and a write-time constraint violation
// is counted as a duplicate rather than surfaced as a failure.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhishek622/quizforge/internal/dedup"
	"github.com/abhishek622/quizforge/internal/repository"
	"github.com/abhishek622/quizforge/pkg/model"
)

// ExamplePlaceholder fills the example field of records persisted without
// one, so restored and exported documents always carry the field.
const ExamplePlaceholder = "No example provided."

// QuestionRepository is the persistence capability the store consumes.
// InsertOne must report a uniqueness-constraint violation as
// repository.ErrDuplicateQuestion.
type QuestionRepository interface {
	InsertOne(ctx context.Context, q *model.Question) error
	FindByTopic(ctx context.Context, topic string) ([]model.Question, error)
	CountByTopic(ctx context.Context, topic string) (int, error)
	Stats(ctx context.Context) ([]model.TopicStats, error)
}

// CorpusCache is an optional snapshot cache in front of FindByTopic.
type CorpusCache interface {
	Get(ctx context.Context, topic string) ([]model.Question, bool)
	Set(ctx context.Context, topic string, questions []model.Question)
	Invalidate(ctx context.Context, topic string)
}

type Store struct {
	repo   QuestionRepository
	cache  CorpusCache // nil disables caching
	topics map[string]bool
	log    *zap.SugaredLogger
}

func New(repo QuestionRepository, cache CorpusCache, topics []string, log *zap.SugaredLogger) *Store {
	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}
	return &Store{repo: repo, cache: cache, topics: set, log: log}
}

// Save ingests candidates into the topic corpus. The corpus is snapshotted
// once per call; the snapshot grows with in-call accepts so a batch cannot
// duplicate itself. The read-then-write check races with concurrent
// writers from other processes; the database constraint is the real
// guarantee, and a violation surfaces here as one more duplicate.
//
// A repository failure other than a constraint violation is fatal for the
// call and returned alongside the counts accumulated so far.
func (s *Store) Save(ctx context.Context, topic string, candidates []model.Question) (model.SaveResult, error) {
	var res model.SaveResult

	if !s.topics[topic] {
		return res, fmt.Errorf("unknown topic: %q", topic)
	}

	corpus, err := s.snapshot(ctx, topic)
	if err != nil {
		return res, err
	}

	for i := range candidates {
		c := candidates[i]
		c.Topic = topic
		c.ContentHash = dedup.Hash(c.Text, c.Answer)
		if c.Example == "" {
			c.Example = ExamplePlaceholder
		}
		if len(c.Tags) == 0 {
			c.Tags = []string{"general"}
		}

		if dup, reason := dedup.IsDuplicate(c, corpus); dup {
			res.Duplicates++
			s.log.Debugw("candidate rejected", "topic", topic, "reason", reason, "id", c.ID)
			continue
		}

		if err := s.repo.InsertOne(ctx, &c); err != nil {
			if errors.Is(err, repository.ErrDuplicateQuestion) {
				// Lost the race to a concurrent writer.
				res.Duplicates++
				continue
			}
			s.finishWrite(ctx, topic, res.Saved)
			// Best effort: earlier candidates of this call may already be
			// persisted, so Total should still reflect them when it can.
			if total, countErr := s.repo.CountByTopic(ctx, topic); countErr == nil {
				res.Total = total
			}
			return res, fmt.Errorf("save question: %w", err)
		}
		res.Saved++
		corpus = append(corpus, c)
	}

	s.finishWrite(ctx, topic, res.Saved)

	total, err := s.repo.CountByTopic(ctx, topic)
	if err != nil {
		return res, fmt.Errorf("count after save: %w", err)
	}
	res.Total = total
	return res, nil
}

// Questions returns the persisted corpus for a topic (backup export path).
func (s *Store) Questions(ctx context.Context, topic string) ([]model.Question, error) {
	if !s.topics[topic] {
		return nil, fmt.Errorf("unknown topic: %q", topic)
	}
	return s.repo.FindByTopic(ctx, topic)
}

// Stats reports per-topic corpus sizes.
func (s *Store) Stats(ctx context.Context) ([]model.TopicStats, error) {
	return s.repo.Stats(ctx)
}

func (s *Store) snapshot(ctx context.Context, topic string) ([]model.Question, error) {
	if s.cache != nil {
		if corpus, ok := s.cache.Get(ctx, topic); ok {
			return corpus, nil
		}
	}
	corpus, err := s.repo.FindByTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, topic, corpus)
	}
	return corpus, nil
}

func (s *Store) finishWrite(ctx context.Context, topic string, saved int) {
	if saved > 0 && s.cache != nil {
		s.cache.Invalidate(ctx, topic)
	}
}
