package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()
	id := r.Create(Config{UserID: "u1", CourseID: 7})

	task, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, "queued", task.Step)
	assert.Equal(t, 0, task.Progress)
	require.Len(t, task.Activity, 1)

	_, err = r.Get("nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRegistryUpdate(t *testing.T) {
	r := NewRegistry()
	id := r.Create(Config{UserID: "u1"})

	require.NoError(t, r.Update(id, StatusGenerating, 40, "chapters", "chapter 2 of 5", ""))
	task, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusGenerating, task.Status)
	assert.Equal(t, 40, task.Progress)
	assert.Equal(t, "chapters", task.Step)

	// Negative progress keeps the previous value, empty step keeps the label.
	require.NoError(t, r.Update(id, StatusGenerating, -1, "", "", ""))
	task, _ = r.Get(id)
	assert.Equal(t, 40, task.Progress)
	assert.Equal(t, "chapters", task.Step)
}

func TestRegistryActivityLogCap(t *testing.T) {
	r := NewRegistry()
	id := r.Create(Config{UserID: "u1"})

	for i := 0; i < 30; i++ {
		require.NoError(t, r.Update(id, StatusGenerating, i, "chapters", "", ""))
	}
	task, err := r.Get(id)
	require.NoError(t, err)
	assert.Len(t, task.Activity, activityLogCap)
	assert.Equal(t, StatusGenerating, task.Activity[len(task.Activity)-1].Status)
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	id := r.Create(Config{UserID: "u1"})

	cancelled := false
	r.RegisterCancel(id, func() { cancelled = true })

	require.NoError(t, r.Cancel(id))
	assert.True(t, cancelled, "cancel hook must fire")

	task, _ := r.Get(id)
	assert.Equal(t, StatusCancelled, task.Status)

	// A terminal task cannot be cancelled again.
	assert.ErrorIs(t, r.Cancel(id), ErrNotCancelable)
	assert.ErrorIs(t, r.Cancel("nope"), ErrTaskNotFound)
}

func TestRegistryRetry(t *testing.T) {
	r := NewRegistry()
	cfg := Config{UserID: "u1", CourseID: 3}
	id := r.Create(cfg)

	// Only failed tasks can be retried.
	_, err := r.Retry(id)
	assert.ErrorIs(t, err, ErrNotRetryable)

	require.NoError(t, r.Update(id, StatusFailed, -1, "chapters", "", "llm unavailable"))
	got, err := r.Retry(id)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	task, _ := r.Get(id)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, 0, task.Progress)
	assert.Empty(t, task.Error)
}

func TestRegistryListByUser(t *testing.T) {
	r := NewRegistry()
	first := r.Create(Config{UserID: "u1", CourseID: 1})
	r.Create(Config{UserID: "u2", CourseID: 2})
	second := r.Create(Config{UserID: "u1", CourseID: 3})

	tasks := r.ListByUser("u1")
	require.Len(t, tasks, 2)
	ids := []string{tasks[0].ID, tasks[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
	assert.False(t, tasks[1].CreatedAt.After(tasks[0].CreatedAt), "newest first")

	assert.Empty(t, r.ListByUser("nobody"))
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	id := r.Create(Config{UserID: "u1"})

	task, err := r.Get(id)
	require.NoError(t, err)
	task.Status = StatusFailed
	task.Activity[0].Step = "mutated"

	fresh, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fresh.Status)
	assert.Equal(t, "queued", fresh.Activity[0].Step)
}
