package controller

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhishek622/quizforge/pkg/model"
)

// testOptions zeroes the delays so sessions run instantly; the nanosecond
// progress interval effectively emits on every batch.
func testOptions() Options {
	return Options{
		TargetCeiling:          1000,
		AllowedBatchSizes:      []int{5, 10, 15, 20},
		MaxConsecutiveFailures: 3,
		RetryDelay:             0,
		DelayBetweenBatches:    0,
		ProgressInterval:       time.Nanosecond,
	}
}

type scriptedFetcher struct {
	calls  int
	script func(call, count int) ([]model.Question, error)
}

func (f *scriptedFetcher) FetchBatch(_ context.Context, _ string, count int, _ model.Difficulty) ([]model.Question, error) {
	f.calls++
	return f.script(f.calls, count)
}

func uniqueBatch(call, count int) []model.Question {
	out := make([]model.Question, count)
	for i := range out {
		out[i] = model.Question{
			ID:   fmt.Sprintf("b%d_q%d", call, i),
			Text: fmt.Sprintf("Unique question %d from batch %d?", i, call),
		}
	}
	return out
}

type scriptedSaver struct {
	calls  int
	total  int
	script func(call int, candidates []model.Question) (model.SaveResult, error)
}

func (s *scriptedSaver) Save(_ context.Context, _ string, candidates []model.Question) (model.SaveResult, error) {
	s.calls++
	if s.script != nil {
		return s.script(s.calls, candidates)
	}
	s.total += len(candidates)
	return model.SaveResult{Saved: len(candidates), Total: s.total}, nil
}

func newTestController(f Fetcher, s Saver) *Controller {
	return New(f, s, testOptions(), zap.NewNop().Sugar())
}

func TestRun_CompletesInExactBatches(t *testing.T) {
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		return uniqueBatch(call, count), nil
	}}
	saver := &scriptedSaver{}
	ctrl := newTestController(fetcher, saver)

	final, err := ctrl.Run(context.Background(), Request{
		Topic: "go", Target: 10, BatchSize: 5, Difficulty: model.DifficultyMixed,
	}, nil)

	require.NoError(t, err)
	assert.True(t, final.Success)
	assert.Equal(t, StateCompleted, final.State)
	assert.Equal(t, 10, final.FinalSaved)
	assert.Equal(t, 2, final.Stats.BatchesCompleted)
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, float64(100), final.ProgressPercent)
	assert.Equal(t, StateCompleted, ctrl.State())
}

func TestRun_LastBatchIsTrimmedToRemainder(t *testing.T) {
	var requested []int
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		requested = append(requested, count)
		return uniqueBatch(call, count), nil
	}}
	ctrl := newTestController(fetcher, &scriptedSaver{})

	final, err := ctrl.Run(context.Background(), Request{
		Topic: "go", Target: 12, BatchSize: 5, Difficulty: model.DifficultyMedium,
	}, nil)

	require.NoError(t, err)
	assert.True(t, final.Success)
	assert.Equal(t, []int{5, 5, 2}, requested)
}

func TestRun_AllDuplicatesExhaustsFailureBudget(t *testing.T) {
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		return uniqueBatch(call, count), nil
	}}
	saver := &scriptedSaver{script: func(_ int, candidates []model.Question) (model.SaveResult, error) {
		return model.SaveResult{Saved: 0, Duplicates: len(candidates), Total: 40}, nil
	}}
	ctrl := newTestController(fetcher, saver)

	final, err := ctrl.Run(context.Background(), Request{
		Topic: "go", Target: 10, BatchSize: 5, Difficulty: model.DifficultyEasy,
	}, nil)

	require.NoError(t, err)
	assert.False(t, final.Success)
	assert.Equal(t, StateFailed, final.State)
	assert.Equal(t, 0, final.FinalSaved)
	assert.Equal(t, 3, final.Stats.BatchesCompleted)
	assert.Equal(t, 15, final.Stats.TotalDuplicates)
}

func TestRun_FetchErrorsExhaustFailureBudget(t *testing.T) {
	fetcher := &scriptedFetcher{script: func(int, int) ([]model.Question, error) {
		return nil, errors.New("rate limited")
	}}
	ctrl := newTestController(fetcher, &scriptedSaver{})

	final, err := ctrl.Run(context.Background(), Request{
		Topic: "go", Target: 10, BatchSize: 5, Difficulty: model.DifficultyHard,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, StateFailed, final.State)
	assert.Equal(t, 3, fetcher.calls)
	assert.Equal(t, 0, final.Stats.BatchesCompleted)
}

func TestRun_FailureBudgetResetsAfterProductiveBatch(t *testing.T) {
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		// Two unproductive rounds before every productive one; the budget
		// of 3 is never exhausted because success resets it.
		if call%3 != 0 {
			return nil, nil
		}
		return uniqueBatch(call, count), nil
	}}
	ctrl := newTestController(fetcher, &scriptedSaver{})

	final, err := ctrl.Run(context.Background(), Request{
		Topic: "go", Target: 10, BatchSize: 5, Difficulty: model.DifficultyMedium,
	}, nil)

	require.NoError(t, err)
	assert.True(t, final.Success)
	assert.Equal(t, 10, final.FinalSaved)
}

func TestRun_StorageErrorConsumesBudgetWithoutAborting(t *testing.T) {
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		return uniqueBatch(call, count), nil
	}}
	saver := &scriptedSaver{}
	saver.script = func(call int, candidates []model.Question) (model.SaveResult, error) {
		if call == 1 {
			return model.SaveResult{}, errors.New("connection refused")
		}
		saver.total += len(candidates)
		return model.SaveResult{Saved: len(candidates), Total: saver.total}, nil
	}
	ctrl := newTestController(fetcher, saver)

	final, err := ctrl.Run(context.Background(), Request{
		Topic: "go", Target: 10, BatchSize: 5, Difficulty: model.DifficultyMedium,
	}, nil)

	require.NoError(t, err)
	assert.True(t, final.Success)
	assert.Equal(t, 10, final.FinalSaved)
}

func TestRun_StopExitsAtIterationBoundary(t *testing.T) {
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		return uniqueBatch(call, count), nil
	}}
	ctrl := newTestController(fetcher, &scriptedSaver{})

	final, err := ctrl.Run(context.Background(), Request{
		Topic: "go", Target: 100, BatchSize: 5, Difficulty: model.DifficultyMedium,
	}, func(p Progress) {
		if p.Stats.BatchesCompleted == 2 {
			ctrl.Stop()
		}
	})

	require.NoError(t, err)
	assert.False(t, final.Success)
	assert.Equal(t, StateStopped, final.State)
	assert.Equal(t, 10, final.FinalSaved, "already-saved progress must be retained")
	assert.Equal(t, StateStopped, ctrl.State())
}

func TestRun_ContextCancellationStopsSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		if call == 1 {
			cancel()
		}
		return uniqueBatch(call, count), nil
	}}
	ctrl := newTestController(fetcher, &scriptedSaver{})

	final, err := ctrl.Run(ctx, Request{
		Topic: "go", Target: 100, BatchSize: 5, Difficulty: model.DifficultyMedium,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, StateStopped, final.State)
	assert.Equal(t, 5, final.FinalSaved)
}

func TestRun_RejectsConcurrentSession(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		if call == 1 {
			entered <- struct{}{}
			<-release
		}
		return uniqueBatch(call, count), nil
	}}
	ctrl := newTestController(fetcher, &scriptedSaver{})

	done := make(chan FinalStats, 1)
	go func() {
		final, _ := ctrl.Run(context.Background(), Request{
			Topic: "go", Target: 5, BatchSize: 5, Difficulty: model.DifficultyMedium,
		}, nil)
		done <- final
	}()

	<-entered
	_, err := ctrl.Run(context.Background(), Request{
		Topic: "go", Target: 5, BatchSize: 5, Difficulty: model.DifficultyMedium,
	}, nil)
	assert.ErrorIs(t, err, ErrSessionRunning)

	close(release)
	final := <-done
	assert.True(t, final.Success, "rejected second start must not disturb the running session")
	assert.Equal(t, 5, final.FinalSaved)
}

func TestRun_ValidationRejectsBeforeAnyStateChange(t *testing.T) {
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		return uniqueBatch(call, count), nil
	}}
	ctrl := newTestController(fetcher, &scriptedSaver{})

	cases := []Request{
		{Topic: "go", Target: 0, BatchSize: 5, Difficulty: model.DifficultyMedium},
		{Topic: "go", Target: 2000, BatchSize: 5, Difficulty: model.DifficultyMedium},
		{Topic: "go", Target: 10, BatchSize: 7, Difficulty: model.DifficultyMedium},
		{Topic: "go", Target: 10, BatchSize: 5, Difficulty: "extreme"},
		{Topic: "", Target: 10, BatchSize: 5, Difficulty: model.DifficultyMedium},
	}
	for _, req := range cases {
		_, err := ctrl.Run(context.Background(), req, nil)
		assert.Error(t, err, "request %+v should be rejected", req)
	}
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestRun_ProgressCarriesCumulativeStats(t *testing.T) {
	fetcher := &scriptedFetcher{script: func(call, count int) ([]model.Question, error) {
		return uniqueBatch(call, count), nil
	}}
	saver := &scriptedSaver{script: func(call int, candidates []model.Question) (model.SaveResult, error) {
		// One duplicate per multi-candidate batch.
		if len(candidates) < 2 {
			return model.SaveResult{Saved: len(candidates)}, nil
		}
		return model.SaveResult{Saved: len(candidates) - 1, Duplicates: 1}, nil
	}}
	ctrl := newTestController(fetcher, saver)

	var progress []Progress
	final, err := ctrl.Run(context.Background(), Request{
		Topic: "go", Target: 8, BatchSize: 5, Difficulty: model.DifficultyMedium,
	}, func(p Progress) { progress = append(progress, p) })

	require.NoError(t, err)
	assert.True(t, final.Success)
	require.NotEmpty(t, progress)

	prev := -1
	for _, p := range progress {
		assert.Equal(t, 8, p.Target)
		assert.GreaterOrEqual(t, p.Current, prev)
		prev = p.Current
	}
	last := progress[len(progress)-1]
	assert.Equal(t, final.Stats.TotalDuplicates, last.Stats.TotalDuplicates)
}
