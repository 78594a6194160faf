package model

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	// DifficultyMixed is a request-level value only; persisted records
	// always carry one of the concrete difficulties above.
	DifficultyMixed Difficulty = "mixed"
)

// Valid reports whether d is a concrete, persistable difficulty.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// ValidRequest reports whether d is acceptable in a fetch request.
func (d Difficulty) ValidRequest() bool {
	return d.Valid() || d == DifficultyMixed
}

// Question is the unit record of the corpus. ID identifies a candidate
// within one fetch batch; ContentHash is the dedup key.
type Question struct {
	ID          string     `json:"id" db:"question_id"`
	Text        string     `json:"question" db:"question"`
	Difficulty  Difficulty `json:"difficulty" db:"difficulty"`
	Topic       string     `json:"topic" db:"topic"`
	Tags        []string   `json:"tags" db:"tags"`
	Example     string     `json:"example" db:"example"`
	Options     []string   `json:"options" db:"options"`
	Answer      string     `json:"answer" db:"answer"`
	ContentHash string     `json:"content_hash" db:"content_hash"`
	SavedAt     time.Time  `json:"saved_at" db:"saved_at"`
}

// SaveResult reports the outcome of one ingestion call. Total is the
// corpus size for the topic after the call.
type SaveResult struct {
	Saved      int `json:"saved"`
	Duplicates int `json:"duplicates"`
	Total      int `json:"total"`
}

type TopicStats struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}
