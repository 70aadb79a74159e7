package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageSearchToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Client-ID test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "graph theory", r.URL.Query().Get("query"))
		assert.Equal(t, "3", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `{"results":[
			{"description":"a graph","alt_description":"","urls":{"regular":"https://images.example.com/graph.jpg"}},
			{"description":"","alt_description":"whiteboard sketch","urls":{"regular":"https://images.example.com/sketch.jpg"}}
		]}`)
	}))
	defer srv.Close()

	tool := &ImageSearchTool{accessKey: "test-key", baseURL: srv.URL, client: srv.Client()}
	out, err := tool.call(context.Background(), `{"query":"graph theory","per_page":3}`)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"description":"a graph","url":"https://images.example.com/graph.jpg"},
		{"description":"whiteboard sketch","url":"https://images.example.com/sketch.jpg"}
	]`, out)
}

func TestImageSearchToolRejectsEmptyQuery(t *testing.T) {
	tool := NewImageSearchTool("test-key")
	_, err := tool.call(context.Background(), `{"query":""}`)
	require.Error(t, err)
}

func TestImageSearchToolEnabled(t *testing.T) {
	assert.False(t, NewImageSearchTool("").Enabled())
	assert.True(t, NewImageSearchTool("k").Enabled())

	var nilTool *ImageSearchTool
	assert.False(t, nilTool.Enabled())
}

type fakeToolClient struct {
	answer string
	tools  []Tool
}

func (f *fakeToolClient) ChatTools(_ context.Context, _ string, _ []Message, tools []Tool) (string, error) {
	f.tools = tools
	return f.answer, nil
}

func TestImageURLUsesSearchTool(t *testing.T) {
	fake := &fakeToolClient{answer: "Best match: https://images.example.com/pick.jpg"}
	p := &Pipeline{
		toolLLM:          fake,
		imageModel:       "fast",
		imageSearch:      NewImageSearchTool("k"),
		imageFallbackURL: "https://fallback.example.com/img.jpg",
		logger:           slog.Default(),
	}

	url := p.ImageURL(context.Background(), "Graphs")
	assert.Equal(t, "https://images.example.com/pick.jpg", url)
	require.Len(t, fake.tools, 1)
	assert.Equal(t, "search_photos", fake.tools[0].Name)
}

func TestImageURLWithoutToolUsesPlainAgent(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) { return "no url here", nil }}
	p := &Pipeline{
		image:            NewStandardAgent(llm, "fast", imageSystemPrompt),
		imageSearch:      NewImageSearchTool(""),
		imageFallbackURL: "https://fallback.example.com/img.jpg",
		logger:           slog.Default(),
	}

	assert.Equal(t, "https://fallback.example.com/img.jpg", p.ImageURL(context.Background(), "Graphs"))
}
