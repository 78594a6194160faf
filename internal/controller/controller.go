// Package controller drives a recursive fetch session: repeated
// fetch-parse-ingest rounds until a target number of newly saved questions
// is reached, a failure budget is exhausted, or the session is stopped.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhishek622/quizforge/pkg/model"
)

// ErrSessionRunning is returned when Run is called on a controller whose
// session is still in flight. Controllers are single-flight, not reentrant.
var ErrSessionRunning = errors.New("a fetch session is already running")

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
	StateFailed    State = "failed"
)

// Fetcher produces candidate questions for one batch.
type Fetcher interface {
	FetchBatch(ctx context.Context, topic string, count int, difficulty model.Difficulty) ([]model.Question, error)
}

// Saver ingests candidates and reports saved/duplicate counts.
type Saver interface {
	Save(ctx context.Context, topic string, candidates []model.Question) (model.SaveResult, error)
}

type Options struct {
	TargetCeiling          int           // hard cap on session targets
	AllowedBatchSizes      []int         // batch sizes accepted at session start
	MaxConsecutiveFailures int           // unproductive batches tolerated in a row
	RetryDelay             time.Duration // wait after an unproductive batch
	DelayBetweenBatches    time.Duration // wait between productive batches
	ProgressInterval       time.Duration // minimum spacing of progress callbacks
}

func DefaultOptions() Options {
	return Options{
		TargetCeiling:          1000,
		AllowedBatchSizes:      []int{5, 10, 15, 20},
		MaxConsecutiveFailures: 3,
		RetryDelay:             3 * time.Second,
		DelayBetweenBatches:    2 * time.Second,
		ProgressInterval:       time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.TargetCeiling <= 0 {
		o.TargetCeiling = def.TargetCeiling
	}
	if len(o.AllowedBatchSizes) == 0 {
		o.AllowedBatchSizes = def.AllowedBatchSizes
	}
	if o.MaxConsecutiveFailures <= 0 {
		o.MaxConsecutiveFailures = def.MaxConsecutiveFailures
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = def.ProgressInterval
	}
	return o
}

type BatchStats struct {
	BatchesCompleted int `json:"batchesCompleted"`
	TotalFetched     int `json:"totalFetched"`
	TotalSaved       int `json:"totalSaved"`
	TotalDuplicates  int `json:"totalDuplicates"`
}

type Progress struct {
	Current         int        `json:"current"`
	Target          int        `json:"target"`
	ProgressPercent float64    `json:"progressPercent"`
	Stats           BatchStats `json:"stats"`
}

type FinalStats struct {
	Success         bool       `json:"success"`
	State           State      `json:"state"`
	FinalSaved      int        `json:"finalSaved"`
	TargetCount     int        `json:"targetCount"`
	ProgressPercent float64    `json:"progressPercent"`
	DurationMinutes float64    `json:"durationMinutes"`
	Stats           BatchStats `json:"stats"`
}

type Request struct {
	Topic      string
	Target     int
	Difficulty model.Difficulty
	BatchSize  int
}

type Controller struct {
	fetcher Fetcher
	saver   Saver
	opts    Options
	log     *zap.SugaredLogger

	mu       sync.Mutex
	running  bool
	state    State
	stopCh   chan struct{}
	stopOnce *sync.Once
}

func New(fetcher Fetcher, saver Saver, opts Options, log *zap.SugaredLogger) *Controller {
	return &Controller{
		fetcher: fetcher,
		saver:   saver,
		opts:    opts.withDefaults(),
		log:     log,
		state:   StateIdle,
	}
}

// State returns the state of the current or most recent session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stop requests a graceful stop. The flag is honored at iteration
// boundaries and during waits; an in-flight fetch or save call is never
// interrupted. Safe to call at any time, including when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running && c.stopOnce != nil {
		stopCh := c.stopCh
		c.stopOnce.Do(func() { close(stopCh) })
	}
}

// Run executes one fetch session to a terminal state. Validation failures
// and concurrent starts are rejected synchronously with no state mutation.
// A terminated session always reports the cumulative stats accumulated
// before termination; progress already persisted is never discarded.
func (c *Controller) Run(ctx context.Context, req Request, onProgress func(Progress)) (FinalStats, error) {
	if err := c.validate(req); err != nil {
		return FinalStats{}, err
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return FinalStats{}, ErrSessionRunning
	}
	c.running = true
	c.state = StateRunning
	c.stopCh = make(chan struct{})
	c.stopOnce = &sync.Once{}
	stopCh := c.stopCh
	c.mu.Unlock()

	final := c.run(ctx, req, onProgress, stopCh)

	c.mu.Lock()
	c.running = false
	c.state = final.State
	c.mu.Unlock()

	return final, nil
}

func (c *Controller) validate(req Request) error {
	if req.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if req.Target < 1 {
		return fmt.Errorf("target count must be positive, got %d", req.Target)
	}
	if req.Target > c.opts.TargetCeiling {
		return fmt.Errorf("target count %d exceeds ceiling %d", req.Target, c.opts.TargetCeiling)
	}
	if !req.Difficulty.ValidRequest() {
		return fmt.Errorf("invalid difficulty: %q", req.Difficulty)
	}
	for _, allowed := range c.opts.AllowedBatchSizes {
		if req.BatchSize == allowed {
			return nil
		}
	}
	return fmt.Errorf("batch size %d is not one of the allowed sizes %v", req.BatchSize, c.opts.AllowedBatchSizes)
}

func (c *Controller) run(ctx context.Context, req Request, onProgress func(Progress), stopCh chan struct{}) FinalStats {
	start := time.Now()
	var stats BatchStats
	var lastEmit time.Time
	saved := 0
	failures := 0
	state := StateRunning

	for saved < req.Target {
		if stopRequested(ctx, stopCh) {
			state = StateStopped
			break
		}

		batchSize := req.BatchSize
		if remaining := req.Target - saved; remaining < batchSize {
			batchSize = remaining
		}

		candidates, err := c.fetcher.FetchBatch(ctx, req.Topic, batchSize, req.Difficulty)
		if err != nil || len(candidates) == 0 {
			if err != nil {
				c.log.Warnw("batch fetch failed", "topic", req.Topic, "error", err)
			} else {
				c.log.Warnw("batch returned no candidates", "topic", req.Topic)
			}
			failures++
			if failures >= c.opts.MaxConsecutiveFailures {
				state = StateFailed
				break
			}
			if !c.wait(ctx, stopCh, c.opts.RetryDelay) {
				state = StateStopped
				break
			}
			continue
		}

		res, err := c.saver.Save(ctx, req.Topic, candidates)
		if err != nil {
			// Storage connectivity trouble consumes failure budget the
			// same way an empty batch does; the session only dies when
			// the budget is gone.
			c.log.Warnw("batch save failed", "topic", req.Topic, "error", err)
			failures++
			if failures >= c.opts.MaxConsecutiveFailures {
				state = StateFailed
				break
			}
			if !c.wait(ctx, stopCh, c.opts.RetryDelay) {
				state = StateStopped
				break
			}
			continue
		}

		stats.BatchesCompleted++
		stats.TotalFetched += len(candidates)
		stats.TotalSaved += res.Saved
		stats.TotalDuplicates += res.Duplicates
		saved += res.Saved

		if res.Saved == 0 {
			// All duplicates: the source is returning material already
			// in the corpus. Counts toward the failure budget.
			failures++
			if failures >= c.opts.MaxConsecutiveFailures {
				state = StateFailed
				break
			}
		} else {
			failures = 0
		}

		if onProgress != nil && (lastEmit.IsZero() || time.Since(lastEmit) >= c.opts.ProgressInterval) {
			lastEmit = time.Now()
			onProgress(Progress{
				Current:         saved,
				Target:          req.Target,
				ProgressPercent: percent(saved, req.Target),
				Stats:           stats,
			})
		}

		if saved < req.Target {
			if !c.wait(ctx, stopCh, c.opts.DelayBetweenBatches) {
				state = StateStopped
				break
			}
		}
	}

	if saved >= req.Target {
		state = StateCompleted
	}

	final := FinalStats{
		Success:         state == StateCompleted,
		State:           state,
		FinalSaved:      saved,
		TargetCount:     req.Target,
		ProgressPercent: percent(saved, req.Target),
		DurationMinutes: time.Since(start).Minutes(),
		Stats:           stats,
	}
	c.log.Infow("session finished",
		"state", state,
		"saved", saved,
		"target", req.Target,
		"batches", stats.BatchesCompleted,
		"duplicates", stats.TotalDuplicates,
	)
	return final
}

// wait blocks for d, returning false when the session should stop instead
// of continuing.
func (c *Controller) wait(ctx context.Context, stopCh chan struct{}, d time.Duration) bool {
	if d <= 0 {
		return !stopRequested(ctx, stopCh)
	}
	select {
	case <-time.After(d):
		return true
	case <-stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func stopRequested(ctx context.Context, stopCh chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func percent(current, target int) float64 {
	if target <= 0 {
		return 0
	}
	p := float64(current) / float64(target) * 100
	if p > 100 {
		p = 100
	}
	return p
}
