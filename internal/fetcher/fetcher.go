// Package fetcher composes the completion capability with the response
// parser: one FetchBatch call is one model round-trip yielding zero or more
// sanitized question candidates.
package fetcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhishek622/quizforge/internal/parser"
	"github.com/abhishek622/quizforge/pkg/model"
)

// Completer is the generative capability consumed by the fetcher. The
// implementation owns transport, timeout and retry policy.
type Completer interface {
	GenerateQuestions(ctx context.Context, topic string, difficulty model.Difficulty, count int) (string, error)
}

type Fetcher struct {
	llm Completer
	log *zap.SugaredLogger
}

func New(llm Completer, log *zap.SugaredLogger) *Fetcher {
	return &Fetcher{llm: llm, log: log}
}

// FetchBatch requests count questions for topic and parses the raw
// completion into candidates. A completion failure is returned as an error;
// unparseable output degrades to an empty (non-error) result.
func (f *Fetcher) FetchBatch(ctx context.Context, topic string, count int, difficulty model.Difficulty) ([]model.Question, error) {
	if count < 1 {
		return nil, fmt.Errorf("invalid batch count: %d", count)
	}
	if !difficulty.ValidRequest() {
		return nil, fmt.Errorf("invalid difficulty: %q", difficulty)
	}

	raw, err := f.llm.GenerateQuestions(ctx, topic, difficulty, count)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	candidates := parser.Extract(raw, topic)
	f.log.Debugw("batch fetched",
		"topic", topic,
		"requested", count,
		"parsed", len(candidates),
	)
	return candidates, nil
}
