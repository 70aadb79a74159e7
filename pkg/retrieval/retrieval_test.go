package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexora-ai/nexora/pkg/ingest"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/vector"
)

// fakeEmbedder maps texts to fixed vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := f.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func newTestService(t *testing.T, embedder Embedder) (*Service, *vector.Index) {
	t.Helper()
	ix, err := vector.Open(filepath.Join(t.TempDir(), "index.db"), 3)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return NewService(ix, embedder, "course_", slog.Default()), ix
}

func TestChapterContextDeduplicatesByText(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"Sorting algorithms": {1, 0, 0},
		"quicksort":          {0, 1, 0},
	}}
	svc, ix := newTestService(t, embedder)
	ctx := context.Background()

	// Both queries rank "pivot selection" highly; it must appear once.
	require.NoError(t, ix.Upsert(ctx, "course_7", vector.Chunk{ContentID: "a", Text: "comparison sorts"}, []float32{1, 0, 0}))
	require.NoError(t, ix.Upsert(ctx, "course_7", vector.Chunk{ContentID: "b", Text: "pivot selection"}, []float32{0.8, 0.6, 0}))
	require.NoError(t, ix.Upsert(ctx, "course_7", vector.Chunk{ContentID: "c", Text: "partitioning"}, []float32{0, 1, 0}))

	chunks, err := svc.ChapterContext(ctx, 7, models.ChapterPlan{
		Caption: "Sorting algorithms",
		Content: []string{"quicksort"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"comparison sorts", "pivot selection", "partitioning"}, chunks)
}

func TestChapterContextEmptyCollection(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"Anything": {1, 0, 0},
	}}
	svc, _ := newTestService(t, embedder)

	chunks, err := svc.ChapterContext(context.Background(), 1, models.ChapterPlan{Caption: "Anything"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestHasContextAndQueryContext(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"learn go": {1, 0, 0},
	}}
	svc, ix := newTestService(t, embedder)
	ctx := context.Background()

	has, err := svc.HasContext(ctx, 3)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, ix.Upsert(ctx, "course_3", vector.Chunk{ContentID: "a", Text: "goroutines"}, []float32{1, 0, 0}))
	require.NoError(t, ix.Upsert(ctx, "course_3", vector.Chunk{ContentID: "b", Text: "channels"}, []float32{0, 1, 0}))

	has, err = svc.HasContext(ctx, 3)
	require.NoError(t, err)
	assert.True(t, has)

	texts, err := svc.QueryContext(ctx, 3, "learn go", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"goroutines"}, texts)
}

func TestIngestParagraphsStoresMetadata(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"a long enough paragraph about indexing": {1, 0, 0},
	}}
	svc, ix := newTestService(t, embedder)
	ctx := context.Background()

	doc := &models.Document{ID: 9, Filename: "notes.pdf"}
	err := svc.ingestParagraphs(ctx, 4, doc, []ingest.Paragraph{{
		Text: "a long enough paragraph about indexing", Page: 2, ParagraphIndex: 0, WordCount: 6,
	}})
	require.NoError(t, err)

	hits, err := ix.Query(ctx, "course_4", []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc_9_page_2_para_0", hits[0].ContentID)
	assert.Equal(t, map[string]any{
		"type":            "pdf_paragraph",
		"course":          float64(4),
		"document":        float64(9),
		"filename":        "notes.pdf",
		"page":            float64(2),
		"paragraph_index": float64(0),
		"word_count":      float64(6),
	}, hits[0].Metadata)
}

func TestCollectionName(t *testing.T) {
	svc, _ := newTestService(t, &fakeEmbedder{})
	assert.Equal(t, "course_42", svc.Collection(42))
}
