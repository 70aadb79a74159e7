package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ImageSearchTool exposes Unsplash photo search as an LLM tool so the image
// agent can pick a real photo instead of guessing a URL.
type ImageSearchTool struct {
	accessKey string
	baseURL   string
	client    *http.Client
}

// NewImageSearchTool creates the tool. An empty access key yields a disabled
// tool.
func NewImageSearchTool(accessKey string) *ImageSearchTool {
	return &ImageSearchTool{
		accessKey: accessKey,
		baseURL:   "https://api.unsplash.com",
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether an access key is configured.
func (t *ImageSearchTool) Enabled() bool {
	return t != nil && t.accessKey != ""
}

// Tool returns the LLM tool definition.
func (t *ImageSearchTool) Tool() Tool {
	return Tool{
		Name:        "search_photos",
		Description: "Search for royalty-free stock photos. Returns photo descriptions and image URLs.",
		Parameters: map[string]any{
			"type":     "object",
			"required": []string{"query"},
			"properties": map[string]any{
				"query":    map[string]any{"type": "string", "description": "Search keywords"},
				"per_page": map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
			},
		},
		Call: t.call,
	}
}

type imageSearchArgs struct {
	Query   string `json:"query"`
	PerPage int    `json:"per_page"`
}

type imageSearchPhoto struct {
	Description string `json:"description"`
	URL         string `json:"url"`
}

func (t *ImageSearchTool) call(ctx context.Context, arguments string) (string, error) {
	var args imageSearchArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid search arguments: %w", err)
	}
	if args.Query == "" {
		return "", fmt.Errorf("query must not be empty")
	}
	if args.PerPage <= 0 || args.PerPage > 10 {
		args.PerPage = 5
	}
	photos, err := t.search(ctx, args.Query, args.PerPage)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(photos)
	if err != nil {
		return "", fmt.Errorf("failed to encode search results: %w", err)
	}
	return string(out), nil
}

func (t *ImageSearchTool) search(ctx context.Context, query string, perPage int) ([]imageSearchPhoto, error) {
	endpoint, err := url.Parse(t.baseURL + "/search/photos")
	if err != nil {
		return nil, fmt.Errorf("invalid image search endpoint: %w", err)
	}
	params := endpoint.Query()
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("order_by", "relevant")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image search request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+t.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			Description    string `json:"description"`
			AltDescription string `json:"alt_description"`
			Urls           struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode image search response: %w", err)
	}

	photos := make([]imageSearchPhoto, 0, len(payload.Results))
	for _, r := range payload.Results {
		description := r.Description
		if description == "" {
			description = r.AltDescription
		}
		photos = append(photos, imageSearchPhoto{Description: description, URL: r.Urls.Regular})
	}
	return photos, nil
}
