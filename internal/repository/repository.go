package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	Question QuestionRepository
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{
		Question: QuestionRepository{db: db},
	}
}

// EnsureSchema creates the questions table and its uniqueness constraint if
// they do not exist. The composite key (topic, content_hash) is the hard
// dedup invariant: the detector's pre-check is a best-effort optimization,
// this constraint is the guarantee.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS questions (
	question_id  text        NOT NULL,
	topic        text        NOT NULL,
	question     text        NOT NULL,
	difficulty   text        NOT NULL,
	tags         jsonb       NOT NULL DEFAULT '[]',
	example      text        NOT NULL DEFAULT '',
	options      jsonb       NOT NULL DEFAULT '[]',
	answer       text        NOT NULL DEFAULT '',
	content_hash text        NOT NULL,
	saved_at     timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (topic, content_hash)
)`
	if _, err := r.Question.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
