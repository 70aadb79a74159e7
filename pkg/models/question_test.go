package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMultipleChoice(t *testing.T) {
	mc := GeneratedQuestion{
		Question: "Pick one",
		AnswerA:  "A", AnswerB: "B", AnswerC: "C", AnswerD: "D",
		CorrectAnswer: "b",
	}
	assert.True(t, mc.IsMultipleChoice())

	openText := GeneratedQuestion{Question: "Explain channels", CorrectAnswer: "They synchronize goroutines"}
	assert.False(t, openText.IsMultipleChoice())

	// A lone option with a free-text answer stays open-text.
	partial := GeneratedQuestion{
		Question: "What is the capital of France?",
		AnswerA:  "Paris", CorrectAnswer: "Paris is the capital",
	}
	assert.False(t, partial.IsMultipleChoice())

	missingOption := mc
	missingOption.AnswerD = ""
	assert.False(t, missingOption.IsMultipleChoice())

	letterless := mc
	letterless.CorrectAnswer = "B"
	assert.False(t, letterless.IsMultipleChoice())
}
