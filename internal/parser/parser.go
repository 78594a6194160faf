// Package parser turns raw chat-completion output into validated question
// candidates. Model output is unreliable: it may wrap JSON in prose or code
// fences, use JavaScript-ish syntax, or truncate mid-array. The parser
// degrades to fewer (or zero) candidates and never returns an error.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhishek622/quizforge/pkg/model"
)

var (
	codeFenceRegex     = regexp.MustCompile("(?s)`{3}(?:json|javascript|js)?\\s*\\n?([\\s\\S]*?)\\n?`{3}")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRegex   = regexp.MustCompile(`([{,]\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	whitespaceRunRegex = regexp.MustCompile(`\s+`)
)

// Extract parses raw model output into sanitized question candidates for the
// requested topic. Strategy order:
//
//  1. strip markdown code fences
//  2. locate the first balanced array span, preferring an array of objects
//  3. strict parse of the span exactly as found
//  4. repair common JSON damage and parse again
//  5. fall back to a character scanner that salvages individually
//     parseable objects, discarding only the broken ones
//
// A span that already parses is never repaired: question text may legally
// contain brace/key patterns that the repair regexes would mangle.
//
// Malformed input yields an empty slice, never an error: one bad question
// must not abort its batch.
func Extract(raw, topic string) []model.Question {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	text = stripCodeFences(text)

	span := findArraySpan(text)
	if span == "" {
		return nil
	}

	entries := parseEntries(span)
	if len(entries) == 0 {
		return nil
	}

	return sanitize(entries, topic)
}

func parseEntries(span string) []map[string]any {
	var entries []map[string]any
	if err := json.Unmarshal([]byte(span), &entries); err == nil {
		return entries
	}

	repaired := repair(span)
	if err := json.Unmarshal([]byte(repaired), &entries); err == nil {
		return entries
	}

	if out := scanObjects(span); len(out) > 0 {
		return out
	}
	return scanObjects(repaired)
}

func stripCodeFences(text string) string {
	cleaned := codeFenceRegex.ReplaceAllString(text, "$1")
	return strings.TrimSpace(cleaned)
}

// findArraySpan returns the first bracket-balanced array in text. An array
// containing at least one object wins over a bare scalar array. Bracket
// depth is tracked outside string literals only, so brackets inside question
// text do not break matching. Returns "" when no balanced array exists
// (e.g. truncated output).
func findArraySpan(text string) string {
	fallback := ""
	for start := 0; start < len(text); start++ {
		if text[start] != '[' {
			continue
		}
		end := matchBracket(text, start)
		if end < 0 {
			continue
		}
		span := text[start : end+1]
		if strings.Contains(span, "{") {
			return span
		}
		if fallback == "" {
			fallback = span
		}
		start = end
	}
	return fallback
}

// matchBracket walks text from the opening bracket at start and returns the
// index of its matching close, or -1 when unbalanced.
func matchBracket(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// repair applies the forgiving cleanup pass: trailing commas before closing
// brackets, unquoted object keys, single-quoted strings, and whitespace
// runs. The cleanup regexes only touch text outside string literals, so
// question text containing brace or key patterns survives intact. Quote
// conversion only runs when the span carries no double quotes at all, so
// valid JSON containing apostrophes is left alone.
func repair(span string) string {
	if !strings.Contains(span, `"`) {
		cleaned := repairSegment(span)
		return strings.TrimSpace(strings.ReplaceAll(cleaned, "'", `"`))
	}

	var b strings.Builder
	inString := false
	escaped := false
	segStart := 0
	for i := 0; i < len(span); i++ {
		c := span[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				b.WriteString(span[segStart : i+1])
				segStart = i + 1
			}
			continue
		}
		if c == '"' {
			b.WriteString(repairSegment(span[segStart:i]))
			segStart = i
			inString = true
		}
	}
	if segStart < len(span) {
		tail := span[segStart:]
		if inString {
			b.WriteString(tail)
		} else {
			b.WriteString(repairSegment(tail))
		}
	}
	return strings.TrimSpace(b.String())
}

func repairSegment(seg string) string {
	seg = whitespaceRunRegex.ReplaceAllString(seg, " ")
	seg = trailingCommaRegex.ReplaceAllString(seg, "$1")
	return unquotedKeyRegex.ReplaceAllString(seg, `$1"$2":`)
}

// scanObjects walks the span character by character, tracking brace depth
// and string-escape state, and tries to parse each top-level {...} group as
// one object. Objects that fail to parse are dropped individually; the rest
// of the batch survives.
func scanObjects(span string) []map[string]any {
	var out []map[string]any
	depth := 0
	inString := false
	escaped := false
	objStart := -1

	for i := 0; i < len(span); i++ {
		c := span[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				objStart = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && objStart >= 0 {
				var obj map[string]any
				if err := json.Unmarshal([]byte(span[objStart:i+1]), &obj); err == nil {
					out = append(out, obj)
				}
				objStart = -1
			}
		}
	}
	return out
}

// sanitize converts loose entries into canonical questions, dropping any
// entry without usable question text. Ids are always assigned from a shared
// per-batch seed plus the positional index: model-supplied ids may collide
// or be missing, and intra-batch uniqueness must hold regardless.
func sanitize(entries []map[string]any, topic string) []model.Question {
	seed := fmt.Sprintf("q_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])

	out := make([]model.Question, 0, len(entries))
	for i, entry := range entries {
		text := firstString(entry, "question", "text")
		if strings.TrimSpace(text) == "" {
			continue
		}

		q := model.Question{
			ID:         fmt.Sprintf("%s_%d", seed, i),
			Text:       strings.TrimSpace(text),
			Difficulty: normalizeDifficulty(firstString(entry, "difficulty")),
			Topic:      topic,
			Tags:       stringSlice(entry["tags"]),
			Example:    strings.TrimSpace(firstString(entry, "example")),
			Options:    stringSlice(entry["options"]),
			Answer:     strings.TrimSpace(firstString(entry, "answer")),
		}
		if len(q.Tags) == 0 {
			q.Tags = []string{"general"}
		}
		if q.Options == nil {
			q.Options = []string{}
		}
		out = append(out, q)
	}
	return out
}

func normalizeDifficulty(raw string) model.Difficulty {
	d := model.Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return model.DifficultyMedium
	}
	return d
}

// firstString returns the first non-empty string value among the given keys.
func firstString(entry map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := entry[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// stringSlice coerces a loose JSON value into a string slice; anything that
// is not a proper sequence of strings yields nil.
func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
