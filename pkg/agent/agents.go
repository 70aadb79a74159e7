package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// repairAttempts bounds how often a structured agent re-prompts the model
// after invalid JSON before giving up.
const repairAttempts = 2

// StandardAgent runs a single prompt and returns free text.
type StandardAgent struct {
	llm    LLMClient
	model  string
	system string
}

// NewStandardAgent creates a free-text agent with a fixed system prompt.
func NewStandardAgent(llm LLMClient, model, system string) *StandardAgent {
	return &StandardAgent{llm: llm, model: model, system: system}
}

// Run sends the user prompt and returns the raw model text.
func (a *StandardAgent) Run(ctx context.Context, prompt string) (string, error) {
	return a.llm.Chat(ctx, a.model, []Message{
		{Role: RoleSystem, Content: a.system},
		{Role: RoleUser, Content: prompt},
	})
}

// StructuredAgent runs a prompt and enforces a JSON schema on the output.
// Invalid output triggers repair rounds: the bad output and the validation
// error go back to the model with a request to answer again.
type StructuredAgent struct {
	llm        LLMClient
	model      string
	system     string
	schema     *jsonschema.Schema
	schemaJSON string
	logger     *slog.Logger
}

// NewStructuredAgent creates a schema-enforcing agent. schemaJSON must be a
// valid JSON schema document.
func NewStructuredAgent(llm LLMClient, model, system, schemaJSON string, logger *slog.Logger) *StructuredAgent {
	return &StructuredAgent{
		llm:        llm,
		model:      model,
		system:     system,
		schema:     mustCompileSchema(schemaJSON),
		schemaJSON: schemaJSON,
		logger:     logger.With("component", "structured_agent"),
	}
}

// Run sends the prompt and decodes the schema-validated output into out.
func (a *StructuredAgent) Run(ctx context.Context, prompt string, out any) error {
	messages := []Message{
		{Role: RoleSystem, Content: a.system},
		{Role: RoleUser, Content: prompt},
	}

	var lastErr error
	for attempt := 0; attempt <= repairAttempts; attempt++ {
		raw, err := a.llm.Chat(ctx, a.model, messages)
		if err != nil {
			return err
		}
		if err := parseStructured(raw, a.schema, out); err != nil {
			lastErr = err
			a.logger.Warn("structured output invalid, repairing",
				"attempt", attempt+1, "error", err)
			messages = append(messages,
				Message{Role: RoleAssistant, Content: raw},
				Message{Role: RoleUser, Content: repairPrompt(a.schemaJSON, err)},
			)
			continue
		}
		return nil
	}
	return fmt.Errorf("structured output still invalid after %d repairs: %w", repairAttempts, lastErr)
}

// ChatAgent streams conversational answers grounded in course context.
type ChatAgent struct {
	llm   LLMClient
	model string
}

// NewChatAgent creates a streaming chat agent.
func NewChatAgent(llm LLMClient, model string) *ChatAgent {
	return &ChatAgent{llm: llm, model: model}
}

// Stream runs a streaming completion over the full conversation, calling
// onDelta per fragment, and returns the complete answer.
func (a *ChatAgent) Stream(ctx context.Context, messages []Message, onDelta func(string) error) (string, error) {
	return a.llm.ChatStream(ctx, a.model, messages, onDelta)
}
