package vector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "index.db"), 3)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestQueryRanksByCosineDistance(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Upsert(ctx, "course_1", Chunk{ContentID: "a", Text: "alpha"}, []float32{1, 0, 0}))
	require.NoError(t, ix.Upsert(ctx, "course_1", Chunk{ContentID: "b", Text: "beta"}, []float32{0, 1, 0}))
	require.NoError(t, ix.Upsert(ctx, "course_1", Chunk{ContentID: "c", Text: "gamma"}, []float32{0.8, 0.6, 0}))

	hits, err := ix.Query(ctx, "course_1", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ContentID)
	assert.Equal(t, "c", hits[1].ContentID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 0.001)
	assert.InDelta(t, 0.8, hits[1].Similarity, 0.001)
}

func TestUpsertReplacesByContentID(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Upsert(ctx, "course_1", Chunk{ContentID: "a", Text: "old"}, []float32{1, 0, 0}))
	require.NoError(t, ix.Upsert(ctx, "course_1", Chunk{ContentID: "a", Text: "new"}, []float32{0, 1, 0}))

	n, err := ix.Count(ctx, "course_1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := ix.Query(ctx, "course_1", []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Text)
}

func TestUpsertRejectsWrongDimensions(t *testing.T) {
	ix := newTestIndex(t)

	err := ix.Upsert(context.Background(), "course_1", Chunk{ContentID: "a", Text: "alpha"}, []float32{1, 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestCollectionsAreIsolated(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Upsert(ctx, "course_1", Chunk{ContentID: "a", Text: "alpha"}, []float32{1, 0, 0}))
	require.NoError(t, ix.Upsert(ctx, "course_2", Chunk{ContentID: "a", Text: "other"}, []float32{1, 0, 0}))

	hits, err := ix.Query(ctx, "course_2", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "other", hits[0].Text)

	require.NoError(t, ix.DropCollection(ctx, "course_1"))
	n, err := ix.Count(ctx, "course_1")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = ix.Count(ctx, "course_2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
