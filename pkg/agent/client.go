// Package agent implements the LLM agent runtime: a thin chat client over an
// OpenAI-compatible endpoint, structured-output enforcement, retry policy,
// and the concrete agents of the synthesis pipeline.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/nexora-ai/nexora/pkg/config"
)

// Role constants for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of an LLM conversation.
type Message struct {
	Role    string
	Content string
}

// LLMClient is the model dependency the agents run on. Tests substitute a
// fake; production uses Client.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []Message) (string, error)
	ChatStream(ctx context.Context, model string, messages []Message, onDelta func(string) error) (string, error)
}

// Tool is one function the model may call during a completion. Parameters is
// a JSON schema document; Call receives the raw JSON arguments.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Call        func(ctx context.Context, arguments string) (string, error)
}

// ToolClient runs completions with tool calling.
type ToolClient interface {
	ChatTools(ctx context.Context, model string, messages []Message, tools []Tool) (string, error)
}

// Client talks to an OpenAI-compatible chat completion endpoint with the
// configured retry policy: a fixed delay between attempts, one initial try
// plus the configured number of retries.
type Client struct {
	api        openai.Client
	model      string
	fastModel  string
	attempts   uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates a client from the LLM configuration.
func NewClient(cfg config.LLMConfig, logger *slog.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:        openai.NewClient(opts...),
		model:      cfg.Model,
		fastModel:  cfg.FastModel,
		attempts:   uint(1 + cfg.MaxRetries),
		retryDelay: cfg.RetryDelay,
		logger:     logger.With("component", "llm"),
	}
}

// Model returns the default reasoning model name.
func (c *Client) Model() string { return c.model }

// FastModel returns the cheaper model used for grading and chat; it falls
// back to the default model when none is configured.
func (c *Client) FastModel() string {
	if c.fastModel != "" {
		return c.fastModel
	}
	return c.model
}

func toParams(model string, messages []Message) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{Model: openai.ChatModel(model)}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	return params
}

// Chat runs one completion and returns the assistant text.
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	var content string
	err := retry.Do(
		func() error {
			resp, err := c.api.Chat.Completions.New(ctx, toParams(model, messages))
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}
			content = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("completion attempt failed", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	return content, nil
}

// maxToolRounds bounds the completion/tool-call loop.
const maxToolRounds = 4

// ChatTools runs a completion loop with tool calling: tool calls are
// executed, their results appended as tool messages, and the model re-run
// until it answers in text or the round budget is spent. Tool execution
// errors go back to the model as results rather than aborting the loop.
func (c *Client) ChatTools(ctx context.Context, model string, messages []Message, tools []Tool) (string, error) {
	params := toParams(model, messages)
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.Parameters),
		}))
	}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("completion returned no choices")
		}
		message := resp.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			return message.Content, nil
		}

		params.Messages = append(params.Messages, message.ToParam())
		for _, call := range message.ToolCalls {
			tool, known := byName[call.Function.Name]
			if !known {
				params.Messages = append(params.Messages, openai.ToolMessage("unknown tool", call.ID))
				continue
			}
			result, err := tool.Call(ctx, call.Function.Arguments)
			if err != nil {
				c.logger.Warn("tool call failed", "tool", call.Function.Name, "error", err)
				result = fmt.Sprintf("tool error: %v", err)
			}
			params.Messages = append(params.Messages, openai.ToolMessage(result, call.ID))
		}
	}
	return "", fmt.Errorf("completion did not finish within %d tool rounds", maxToolRounds)
}

// ChatStream runs one streaming completion, invoking onDelta for each text
// fragment, and returns the full assistant text. Streaming is not retried;
// partial output may already have reached the caller.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message, onDelta func(string) error) (string, error) {
	stream := c.api.Chat.Completions.NewStreaming(ctx, toParams(model, messages))
	var full string
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full += delta
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return full, err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return full, fmt.Errorf("streaming completion failed: %w", err)
	}
	return full, nil
}
