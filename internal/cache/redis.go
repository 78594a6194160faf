package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhishek622/quizforge/pkg/model"
)

func NewRedisClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})
}

func Ping(ctx context.Context, c *redis.Client) error {
	return c.Ping(ctx).Err()
}

// Corpus caches the per-topic question snapshot consulted by the duplicate
// detector, saving a full table read per ingestion call. It is strictly an
// optimization: a miss or a redis failure falls through to the repository,
// and the store stays correct with no cache at all.
type Corpus struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCorpus(rdb *redis.Client, ttl time.Duration) *Corpus {
	return &Corpus{rdb: rdb, ttl: ttl}
}

func corpusKey(topic string) string { return "quizforge:corpus:" + topic }

// Get returns the cached corpus for topic, or ok=false on miss or error.
func (c *Corpus) Get(ctx context.Context, topic string) ([]model.Question, bool) {
	raw, err := c.rdb.Get(ctx, corpusKey(topic)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []model.Question
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *Corpus) Set(ctx context.Context, topic string, questions []model.Question) {
	raw, err := json.Marshal(questions)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, corpusKey(topic), raw, c.ttl)
}

// Invalidate drops the cached snapshot after a write; the next read
// repopulates it from the repository.
func (c *Corpus) Invalidate(ctx context.Context, topic string) {
	c.rdb.Del(ctx, corpusKey(topic))
}
