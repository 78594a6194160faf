package groq

import (
	"context"
	"fmt"

	"github.com/abhishek622/quizforge/pkg/model"
)

const questionSystemPrompt = `You are a precise generator of coding-interview questions. Output ONLY a valid JSON array, with no additional text, markdown, or explanation.

Each item must be an object with:
- "question": the full interview question text
- "difficulty": one of "easy", "medium", or "hard"
- "tags": an array of short topic tags
- "example": a short illustrative code snippet or scenario
- "options": an array of exactly 4 candidate solution approaches
- "answer": the correct option, copied verbatim from "options"

Rules:
- Every question must be self-contained and answerable without external context.
- NEVER repeat or trivially rephrase a question within the batch.
- Output must be valid JSON. No prefix, suffix, or backticks.
`

// GenerateQuestions asks the model for a batch of interview questions and
// returns the raw completion text. Parsing and validation happen downstream;
// this call only owns the prompt and the transport.
func (c *Client) GenerateQuestions(ctx context.Context, topic string, difficulty model.Difficulty, count int) (string, error) {
	level := string(difficulty)
	if difficulty == model.DifficultyMixed {
		level = "a random mix of easy, medium and hard"
	}

	userPrompt := fmt.Sprintf(
		"Generate %d unique coding-interview questions about %s. Difficulty: %s.",
		count, topic, level,
	)

	chatReq := ChatRequest{
		Messages: []map[string]string{
			{"role": "system", "content": questionSystemPrompt},
			{"role": "user", "content": userPrompt},
		},
		MaxTokens:   4000,
		Temperature: 0.8,
	}

	return c.Chat(ctx, chatReq)
}
