package agent

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexora-ai/nexora/pkg/validator"
)

// fakeRetryValidator passes once passAfter generations have been seen.
type fakeRetryValidator struct {
	calls     int
	passAfter int
}

func (f *fakeRetryValidator) Validate(_ context.Context, _ string) (*validator.Result, error) {
	f.calls++
	if f.calls >= f.passAfter {
		return &validator.Result{Valid: true}, nil
	}
	return &validator.Result{
		Valid:  false,
		Issues: []validator.Issue{{Message: "unexpected token", Line: 1, Column: 5}},
	}, nil
}

func TestReviewCodePassesFirstTry(t *testing.T) {
	check := &fakeRetryValidator{passAfter: 1}
	generations := 0

	code, err := ReviewCode(context.Background(), check, 5, slog.Default(),
		func(_ context.Context, feedback string) (string, error) {
			generations++
			assert.Empty(t, feedback, "first generation gets no feedback")
			return "() => {<p>ok</p>}", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "() => {<p>ok</p>}", code)
	assert.Equal(t, 1, generations)
}

func TestReviewCodeFeedsValidatorErrorsBack(t *testing.T) {
	check := &fakeRetryValidator{passAfter: 3}
	var feedbacks []string

	_, err := ReviewCode(context.Background(), check, 5, slog.Default(),
		func(_ context.Context, feedback string) (string, error) {
			feedbacks = append(feedbacks, feedback)
			return fmt.Sprintf("attempt %d", len(feedbacks)), nil
		})
	require.NoError(t, err)
	require.Len(t, feedbacks, 3)
	assert.Empty(t, feedbacks[0])
	assert.Contains(t, feedbacks[1], "unexpected token")
	assert.Contains(t, feedbacks[1], "line 1")
}

func TestReviewCodeExhaustsIterations(t *testing.T) {
	check := &fakeRetryValidator{passAfter: 100}

	code, err := ReviewCode(context.Background(), check, 2, slog.Default(),
		func(_ context.Context, _ string) (string, error) {
			return "still broken", nil
		})
	assert.ErrorIs(t, err, ErrUnrepairable)
	assert.Equal(t, "still broken", code, "last candidate is returned for fallback handling")
	assert.Equal(t, 2, check.calls)
}

func TestExtractImageURL(t *testing.T) {
	const fallback = "https://example.com/fallback.jpg"

	assert.Equal(t, "https://images.example.com/a.png",
		ExtractImageURL("Here: https://images.example.com/a.png works well", fallback))
	assert.Equal(t, fallback, ExtractImageURL("no url at all", fallback))
	assert.Equal(t, fallback, ExtractImageURL("only http://insecure.example.com/a.png", fallback))
	assert.Equal(t, "https://a.example.com/1.jpg",
		ExtractImageURL("first https://a.example.com/1.jpg then https://b.example.com/2.jpg", fallback))
}
