package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/quizforge/pkg/model"
)

const cleanArray = `[
  {"question": "What is a goroutine?", "difficulty": "easy", "tags": ["concurrency"],
   "example": "go func() {}()", "options": ["a thread", "a lightweight routine", "a process", "a callback"],
   "answer": "a lightweight routine"},
  {"question": "Explain channel direction types.", "difficulty": "medium",
   "options": ["chan<-", "<-chan", "both", "neither"], "answer": "both"}
]`

func TestExtract_CleanArray(t *testing.T) {
	got := Extract(cleanArray, "go")

	require.Len(t, got, 2)
	assert.Equal(t, "What is a goroutine?", got[0].Text)
	assert.Equal(t, model.DifficultyEasy, got[0].Difficulty)
	assert.Equal(t, []string{"concurrency"}, got[0].Tags)
	assert.Equal(t, "a lightweight routine", got[0].Answer)
	assert.Equal(t, "go", got[0].Topic)
	assert.Equal(t, model.DifficultyMedium, got[1].Difficulty)
}

func TestExtract_ArrayEmbeddedInProse(t *testing.T) {
	raw := "Sure! Here are your questions:\n\n" + cleanArray + "\n\nLet me know if you need more."

	got := Extract(raw, "go")
	require.Len(t, got, 2)
}

func TestExtract_CodeFenced(t *testing.T) {
	raw := "```json\n" + cleanArray + "\n```"

	got := Extract(raw, "go")
	require.Len(t, got, 2)
}

func TestExtract_NeverErrorsOnGarbage(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t ",
		"no json here at all",
		"[{\"question\": \"truncated mid",
		"{]}[",
		"[1, 2, 3]",
		"null",
	}
	for _, input := range inputs {
		got := Extract(input, "go")
		assert.Empty(t, got, "input %q should yield no candidates", input)
	}
}

func TestExtract_RepairsTrailingCommasAndUnquotedKeys(t *testing.T) {
	raw := `[
  {question: "What does the V8 engine do?", difficulty: "hard", answer: "compiles JS to machine code",},
  {question: "What is hoisting?", difficulty: "easy", answer: "declarations move to scope top",}
]`

	got := Extract(raw, "javascript")
	require.Len(t, got, 2)
	assert.Equal(t, "What does the V8 engine do?", got[0].Text)
	assert.Equal(t, model.DifficultyHard, got[0].Difficulty)
}

func TestExtract_BracesInsideQuestionTextSurvive(t *testing.T) {
	raw := `[{"question": "In JavaScript, what does {a: 1} evaluate to?", "answer": "an object literal"}]`

	got := Extract(raw, "javascript")
	require.Len(t, got, 1)
	assert.Equal(t, "In JavaScript, what does {a: 1} evaluate to?", got[0].Text)
	assert.Equal(t, "an object literal", got[0].Answer)
}

func TestExtract_RepairLeavesStringLiteralsAlone(t *testing.T) {
	// Trailing commas force the repair pass; the key-like pattern inside the
	// question text must come through untouched.
	raw := `[{"question": "What does {a: 1, b: 2} log?", "answer": "an object",},]`

	got := Extract(raw, "javascript")
	require.Len(t, got, 1)
	assert.Equal(t, "What does {a: 1, b: 2} log?", got[0].Text)
}

func TestExtract_SingleQuotedJSON(t *testing.T) {
	raw := `[{'question': 'What is duck typing?', 'difficulty': 'easy', 'answer': 'behavior over type'}]`

	got := Extract(raw, "python")
	require.Len(t, got, 1)
	assert.Equal(t, "What is duck typing?", got[0].Text)
}

func TestExtract_SalvagesGoodObjectsAroundBrokenOnes(t *testing.T) {
	// The middle element is not valid JSON even after repair; the scanner
	// must keep the two parseable neighbours.
	raw := `[
  {"question": "First valid question?", "answer": "yes"},
  {"question": "broken \x escape"},
  {"question": "Third valid question?", "answer": "also yes"}
]`

	got := Extract(raw, "go")
	require.Len(t, got, 2)
	assert.Equal(t, "First valid question?", got[0].Text)
	assert.Equal(t, "Third valid question?", got[1].Text)
}

func TestExtract_DropsEntriesWithoutQuestionText(t *testing.T) {
	raw := `[
  {"question": "", "answer": "empty text"},
  {"answer": "no text field at all"},
  {"question": "A real question?", "answer": "kept"}
]`

	got := Extract(raw, "go")
	require.Len(t, got, 1)
	assert.Equal(t, "A real question?", got[0].Text)
}

func TestExtract_AppliesDefaults(t *testing.T) {
	raw := `[{"question": "Bare minimum question?"}]`

	got := Extract(raw, "sql")
	require.Len(t, got, 1)

	q := got[0]
	assert.Equal(t, model.DifficultyMedium, q.Difficulty)
	assert.Equal(t, []string{"general"}, q.Tags)
	assert.Equal(t, []string{}, q.Options)
	assert.Equal(t, "", q.Example)
	assert.Equal(t, "", q.Answer)
	assert.Equal(t, "sql", q.Topic)
	assert.NotEmpty(t, q.ID)
}

func TestExtract_ForcesRequestedTopic(t *testing.T) {
	raw := `[{"question": "Which topic wins?", "topic": "java"}]`

	got := Extract(raw, "python")
	require.Len(t, got, 1)
	assert.Equal(t, "python", got[0].Topic)
}

func TestExtract_InvalidDifficultyDefaultsToMedium(t *testing.T) {
	raw := `[{"question": "Difficulty check?", "difficulty": "IMPOSSIBLE"}]`

	got := Extract(raw, "go")
	require.Len(t, got, 1)
	assert.Equal(t, model.DifficultyMedium, got[0].Difficulty)
}

func TestExtract_TagsThatAreNotASequenceDefault(t *testing.T) {
	raw := `[{"question": "Tag shape check?", "tags": "not-a-list", "options": 42}]`

	got := Extract(raw, "go")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"general"}, got[0].Tags)
	assert.Equal(t, []string{}, got[0].Options)
}

func TestExtract_IntraBatchIDsAreUnique(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 20; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		// Same id supplied by the model on every entry.
		sb.WriteString(`{"id": "dup", "question": "Question number ` + strings.Repeat("x", i+1) + `?"}`)
	}
	sb.WriteString("]")

	got := Extract(sb.String(), "go")
	require.Len(t, got, 20)

	seen := map[string]bool{}
	for _, q := range got {
		assert.False(t, seen[q.ID], "id %s assigned twice", q.ID)
		seen[q.ID] = true
	}
}

func TestExtract_PrefersArrayOfObjectsOverScalarArray(t *testing.T) {
	raw := `The difficulties are ["easy", "medium"] and the questions are ` +
		`[{"question": "The real payload?", "answer": "yes"}]`

	got := Extract(raw, "go")
	require.Len(t, got, 1)
	assert.Equal(t, "The real payload?", got[0].Text)
}
