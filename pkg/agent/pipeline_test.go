package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/validator"
)

// fakeLLM answers by inspecting the last message content.
type fakeLLM struct {
	respond func(last string) (string, error)
}

func (f *fakeLLM) Chat(_ context.Context, _ string, messages []Message) (string, error) {
	return f.respond(messages[len(messages)-1].Content)
}

func (f *fakeLLM) ChatStream(_ context.Context, _ string, messages []Message, _ func(string) error) (string, error) {
	return f.respond(messages[len(messages)-1].Content)
}

// fakeValidator flags any source containing "wrong".
type fakeValidator struct{}

func (fakeValidator) Validate(_ context.Context, source string) (*validator.Result, error) {
	if strings.Contains(source, "wrong") {
		return &validator.Result{Issues: []validator.Issue{{Message: "bad", Line: 1, Rule: "no-undef"}}}, nil
	}
	return &validator.Result{Valid: true}, nil
}

func TestTesterSchemaAcceptsBothVariants(t *testing.T) {
	schema := mustCompileSchema(testerSchema)

	var out struct {
		Questions []models.GeneratedQuestion `json:"questions"`
	}
	err := parseStructured(`{"questions":[
		{"question":"Pick one","answer_a":"A","answer_b":"B","answer_c":"C","answer_d":"D","correct_answer":"b","explanation":"because"},
		{"question":"Explain channels","correct_answer":"They synchronize goroutines"}
	]}`, schema, &out)
	require.NoError(t, err)
	require.Len(t, out.Questions, 2)
	assert.True(t, out.Questions[0].IsMultipleChoice())
	assert.False(t, out.Questions[1].IsMultipleChoice())
}

func TestTesterSchemaRejectsPartialMultipleChoice(t *testing.T) {
	schema := mustCompileSchema(testerSchema)

	var out struct {
		Questions []models.GeneratedQuestion `json:"questions"`
	}

	// A single option with a free-text answer is neither variant.
	err := parseStructured(`{"questions":[
		{"question":"What is the capital of France?","answer_a":"Paris","correct_answer":"Paris is the capital"}
	]}`, schema, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")

	// Four options demand a letter answer.
	err = parseStructured(`{"questions":[
		{"question":"Pick one","answer_a":"A","answer_b":"B","answer_c":"C","answer_d":"D","correct_answer":"Paris"}
	]}`, schema, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
}

func TestGenerateQuestionsDropsUnrepairable(t *testing.T) {
	testerJSON := `{"questions":[
		{"question":"What is a goroutine?","correct_answer":"A lightweight thread"},
		{"question":"() => {<p>wrong forever</p>}","correct_answer":"n/a"},
		{"question":"() => {<p>wrong once</p>}","correct_answer":"n/a"},
		{"question":"Pick one","answer_a":"A","answer_b":"B","answer_c":"C","answer_d":"D","correct_answer":"b"}
	]}`

	llm := &fakeLLM{respond: func(last string) (string, error) {
		switch {
		case strings.Contains(last, "practice questions"):
			return testerJSON, nil
		case strings.Contains(last, "wrong forever"), strings.Contains(last, "wrong again"):
			return "() => {<p>wrong again</p>}", nil
		case strings.Contains(last, "wrong once"):
			return "() => {<p>right</p>}", nil
		}
		return "", fmt.Errorf("unexpected prompt: %s", last)
	}}

	logger := slog.Default()
	p := &Pipeline{
		tester:        NewStructuredAgent(llm, "model", testerSystemPrompt, testerSchema, logger),
		explainer:     NewStandardAgent(llm, "model", explainerSystemPrompt),
		validator:     fakeValidator{},
		questionLimit: 2,
		logger:        logger,
	}

	questions, err := p.GenerateQuestions(context.Background(), "Concurrency", "goroutines and channels", "English")
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "What is a goroutine?", questions[0].Question)
	assert.Equal(t, "() => {<p>right</p>}", questions[1].Question)
	assert.Equal(t, "Pick one", questions[2].Question)
}
