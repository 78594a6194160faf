package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhishek622/quizforge/pkg/model"
)

// ErrDuplicateQuestion is returned when an insert hits the (topic,
// content_hash) constraint. Callers treat it as an expected outcome, not a
// failure: concurrent writers can always slip a duplicate past the
// detector's read-then-write pre-check.
var ErrDuplicateQuestion = errors.New("question already exists for topic")

type QuestionRepository struct {
	db *pgxpool.Pool
}

// InsertOne persists a single question and stamps SavedAt from the
// database clock. Inserts are intentionally row-at-a-time so one constraint
// violation never aborts sibling candidates of the same batch.
func (r QuestionRepository) InsertOne(ctx context.Context, q *model.Question) error {
	const stmt = `
INSERT INTO questions (
	question_id, topic, question, difficulty, tags, example, options, answer, content_hash
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING saved_at
`
	err := r.db.QueryRow(ctx, stmt,
		q.ID, q.Topic, q.Text, q.Difficulty, q.Tags, q.Example, q.Options, q.Answer, q.ContentHash,
	).Scan(&q.SavedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// PostgreSQL unique_violation code is "23505"
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateQuestion
		}
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// FindByTopic returns the full corpus for one topic, oldest first.
func (r QuestionRepository) FindByTopic(ctx context.Context, topic string) ([]model.Question, error) {
	const q = `
SELECT question_id, topic, question, difficulty, tags, example, options, answer, content_hash, saved_at
FROM questions
WHERE topic = $1
ORDER BY saved_at ASC
`
	rows, err := r.db.Query(ctx, q, topic)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var qs model.Question
		if err := rows.Scan(
			&qs.ID, &qs.Topic, &qs.Text, &qs.Difficulty, &qs.Tags,
			&qs.Example, &qs.Options, &qs.Answer, &qs.ContentHash, &qs.SavedAt,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, qs)
	}
	return out, rows.Err()
}

func (r QuestionRepository) CountByTopic(ctx context.Context, topic string) (int, error) {
	var total int
	const q = `SELECT COUNT(1) FROM questions WHERE topic = $1`
	if err := r.db.QueryRow(ctx, q, topic).Scan(&total); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return total, nil
}

// Stats returns per-topic corpus sizes for every topic that has records.
func (r QuestionRepository) Stats(ctx context.Context) ([]model.TopicStats, error) {
	const q = `SELECT topic, COUNT(1) FROM questions GROUP BY topic ORDER BY topic ASC`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []model.TopicStats
	for rows.Next() {
		var s model.TopicStats
		if err := rows.Scan(&s.Topic, &s.Count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
