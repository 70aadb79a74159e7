// Package tasks implements the in-memory task registry tracking background
// course synthesis. Tasks are process-local; a restart forgets them and the
// scheduled sweep reconciles the orphaned courses.
package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexora-ai/nexora/pkg/models"
)

// Status is the lifecycle state of a background task.
type Status string

// Task statuses. completed, failed and cancelled are terminal.
const (
	StatusPending    Status = "pending"
	StatusAnalyzing  Status = "analyzing"
	StatusExtracting Status = "extracting"
	StatusGenerating Status = "generating"
	StatusPackaging  Status = "packaging"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the status ends the task.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// activityLogCap bounds the per-task activity log.
const activityLogCap = 20

// Config is the immutable input a task was created with; Retry re-runs it.
type Config struct {
	UserID   string
	CourseID int64
	Request  models.CourseRequest
}

// Activity is one entry of a task's activity log.
type Activity struct {
	At      time.Time `json:"at"`
	Status  Status    `json:"status"`
	Step    string    `json:"step"`
	Details string    `json:"details,omitempty"`
}

// Task is one tracked background job.
type Task struct {
	ID        string     `json:"id"`
	Config    Config     `json:"-"`
	Status    Status     `json:"status"`
	Progress  int        `json:"progress"` // 0-100
	Step      string     `json:"step"`
	Error     string     `json:"error,omitempty"`
	Activity  []Activity `json:"activity"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Sentinel errors for registry operations.
var (
	ErrTaskNotFound  = fmt.Errorf("task not found")
	ErrNotRetryable  = fmt.Errorf("only failed tasks can be retried")
	ErrNotCancelable = fmt.Errorf("task already finished")
)

// Registry tracks tasks and their cancellation hooks.
type Registry struct {
	mu      sync.RWMutex
	tasks   map[string]*Task
	cancels map[string]func()
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks:   make(map[string]*Task),
		cancels: make(map[string]func()),
	}
}

// Create registers a new pending task and returns its id.
func (r *Registry) Create(cfg Config) string {
	now := time.Now()
	t := &Task{
		ID:        uuid.NewString(),
		Config:    cfg,
		Status:    StatusPending,
		Step:      "queued",
		CreatedAt: now,
		UpdatedAt: now,
		Activity:  []Activity{{At: now, Status: StatusPending, Step: "queued"}},
	}
	r.mu.Lock()
	r.tasks[t.ID] = t
	r.mu.Unlock()
	return t.ID
}

// Update records task progress. Empty step keeps the previous label; error
// is only stored for failing updates.
func (r *Registry) Update(id string, status Status, progress int, step, details, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	t.Status = status
	if progress >= 0 && progress <= 100 {
		t.Progress = progress
	}
	if step != "" {
		t.Step = step
	}
	t.Error = errMsg
	t.UpdatedAt = time.Now()

	t.Activity = append(t.Activity, Activity{
		At: t.UpdatedAt, Status: status, Step: t.Step, Details: details,
	})
	if len(t.Activity) > activityLogCap {
		t.Activity = t.Activity[len(t.Activity)-activityLogCap:]
	}
	return nil
}

// Get returns a copy of the task.
func (r *Registry) Get(id string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return copyTask(t), nil
}

// ListByUser returns copies of the user's tasks, newest first.
func (r *Registry) ListByUser(userID string) []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Task
	for _, t := range r.tasks {
		if t.Config.UserID == userID {
			out = append(out, copyTask(t))
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// RegisterCancel installs the cancellation hook the worker created for the
// running task.
func (r *Registry) RegisterCancel(id string, cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[id] = cancel
}

// UnregisterCancel removes the hook once the task stops running.
func (r *Registry) UnregisterCancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, id)
}

// Cancel signals cooperative cancellation. The task flips to cancelled on
// its next suspension point; the status here records the request.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return ErrTaskNotFound
	}
	if t.Status.IsTerminal() {
		r.mu.Unlock()
		return ErrNotCancelable
	}
	cancel := r.cancels[id]
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return r.Update(id, StatusCancelled, -1, "cancelled", "cancellation requested", "")
}

// Retry returns the original config of a failed task and resets it to
// pending so the caller can re-enqueue it. Non-failed tasks are rejected.
func (r *Registry) Retry(id string) (Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Config{}, ErrTaskNotFound
	}
	if t.Status != StatusFailed {
		return Config{}, ErrNotRetryable
	}
	t.Status = StatusPending
	t.Progress = 0
	t.Step = "queued"
	t.Error = ""
	t.UpdatedAt = time.Now()
	t.Activity = append(t.Activity, Activity{At: t.UpdatedAt, Status: StatusPending, Step: "retry"})
	if len(t.Activity) > activityLogCap {
		t.Activity = t.Activity[len(t.Activity)-activityLogCap:]
	}
	return t.Config, nil
}

func copyTask(t *Task) *Task {
	c := *t
	c.Activity = append([]Activity(nil), t.Activity...)
	return &c
}
