package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/abhishek622/quizforge/pkg/model"
)

// SimilarityThreshold is the fuzzy-match cutoff: a candidate whose question
// text is strictly more similar than this to any existing question in the
// same topic is rejected as a duplicate.
const SimilarityThreshold = 0.85

// Reason explains why a candidate was rejected.
type Reason string

const (
	ReasonNone  Reason = ""
	ReasonExact Reason = "exact_hash"
	ReasonFuzzy Reason = "fuzzy_match"
)

// Hash returns the canonical content hash for a question: a sha256 digest
// over the lower-cased, trimmed question text and answer. Topic is not part
// of the hash; uniqueness is scoped per topic by the store's constraint.
func Hash(text, answer string) string {
	key := strings.ToLower(strings.TrimSpace(text)) + "|" + strings.ToLower(strings.TrimSpace(answer))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// IsDuplicate runs the two-stage check for one candidate against the corpus
// of its topic: exact hash match first, then fuzzy similarity against every
// existing question text. The candidate's ContentHash must already be set.
func IsDuplicate(candidate model.Question, corpus []model.Question) (bool, Reason) {
	for _, existing := range corpus {
		if existing.ContentHash == candidate.ContentHash {
			return true, ReasonExact
		}
	}

	text := strings.ToLower(strings.TrimSpace(candidate.Text))
	for _, existing := range corpus {
		if Similarity(text, strings.ToLower(strings.TrimSpace(existing.Text))) > SimilarityThreshold {
			return true, ReasonFuzzy
		}
	}
	return false, ReasonNone
}
