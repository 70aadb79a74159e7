package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nexora-ai/nexora/pkg/config"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/queue"
	"github.com/nexora-ai/nexora/pkg/retrieval"
	"github.com/nexora-ai/nexora/pkg/store"
	"github.com/nexora-ai/nexora/pkg/tasks"
)

// CreatedCourse is the create endpoint's response payload.
type CreatedCourse struct {
	CourseID              int64               `json:"course_id"`
	TaskID                string              `json:"task_id"`
	TotalTimeHours        int                 `json:"total_time_hours"`
	Status                models.CourseStatus `json:"status"`
	CompletedChapterCount int                 `json:"completed_chapter_count"`
}

// CourseService implements course lifecycle and ownership rules.
type CourseService struct {
	store     *store.Store
	quota     config.QuotaConfig
	registry  *tasks.Registry
	pool      *queue.Pool
	retrieval *retrieval.Service
	logger    *slog.Logger
}

// NewCourseService creates the course service.
func NewCourseService(st *store.Store, quota config.QuotaConfig, registry *tasks.Registry,
	pool *queue.Pool, rtr *retrieval.Service, logger *slog.Logger) *CourseService {
	return &CourseService{
		store:     st,
		quota:     quota,
		registry:  registry,
		pool:      pool,
		retrieval: rtr,
		logger:    logger.With("component", "course_service"),
	}
}

// CheckQuota enforces the per-user creation limits. Admins bypass the gate.
// Lifetime creations are counted from the append-only ledger; present
// courses are the user's non-failed course rows.
func (s *CourseService) CheckQuota(ctx context.Context, user *models.User) error {
	if user.IsAdmin {
		return nil
	}
	created, err := s.store.Usage.CountAction(ctx, user.ID, models.ActionCreateCourse)
	if err != nil {
		return err
	}
	if created >= s.quota.MaxCourseCreations {
		return &QuotaError{
			Code:    QuotaCodeMaxCreations,
			Limit:   s.quota.MaxCourseCreations,
			Message: "You have reached the maximum number of course creations.",
		}
	}
	_, present, err := s.store.Courses.CountByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if present >= s.quota.MaxPresentCourses {
		return &QuotaError{
			Code:    QuotaCodeMaxPresent,
			Limit:   s.quota.MaxPresentCourses,
			Message: "You have reached the maximum number of courses. Delete one to create another.",
		}
	}
	return nil
}

// Create gates on quota, inserts the placeholder course and enqueues the
// synthesis task. No ledger row is written here; the orchestrator logs
// create_course as its first step.
func (s *CourseService) Create(ctx context.Context, user *models.User, req models.CourseRequest) (*CreatedCourse, error) {
	if req.Query == "" {
		return nil, NewValidationError("query", "must not be empty")
	}
	if req.TimeHours <= 0 {
		return nil, NewValidationError("time_hours", "must be positive")
	}
	if req.Language == "" {
		req.Language = "English"
	}
	if req.Difficulty == "" {
		req.Difficulty = "Intermediate"
	}
	if err := s.CheckQuota(ctx, user); err != nil {
		return nil, err
	}

	courseID, err := s.store.Courses.Create(ctx, &models.Course{
		UserID:         user.ID,
		Query:          req.Query,
		TotalTimeHours: req.TimeHours,
		Language:       req.Language,
		Difficulty:     req.Difficulty,
		Status:         models.CourseStatusCreating,
	})
	if err != nil {
		return nil, err
	}

	cfg := tasks.Config{UserID: user.ID, CourseID: courseID, Request: req}
	taskID := s.registry.Create(cfg)
	if err := s.pool.Enqueue(queue.Job{TaskID: taskID, Config: cfg}); err != nil {
		// The placeholder stays CREATING; the sweep reconciles it.
		s.registry.Update(taskID, tasks.StatusFailed, -1, "enqueue", "", err.Error())
		return nil, fmt.Errorf("failed to schedule course creation: %w", err)
	}

	s.logger.Info("course creation scheduled", "course_id", courseID, "task_id", taskID, "user_id", user.ID)
	return &CreatedCourse{
		CourseID:       courseID,
		TaskID:         taskID,
		TotalTimeHours: req.TimeHours,
		Status:         models.CourseStatusCreating,
	}, nil
}

// RetryTask re-enqueues a failed task owned by the user.
func (s *CourseService) RetryTask(ctx context.Context, user *models.User, taskID string) error {
	task, err := s.registry.Get(taskID)
	if err != nil {
		return ErrNotFound
	}
	if task.Config.UserID != user.ID && !user.IsAdmin {
		return ErrNotFound
	}
	cfg, err := s.registry.Retry(taskID)
	if err != nil {
		return err
	}
	if err := s.store.Courses.UpdateStatus(ctx, cfg.CourseID, models.CourseStatusCreating, ""); err != nil {
		return err
	}
	return s.pool.Enqueue(queue.Job{TaskID: taskID, Config: cfg})
}

// GetOwned returns the course when the caller owns it, the course is public,
// or the caller is an admin. Everything else is NotFound so ownership is not
// disclosed.
func (s *CourseService) GetOwned(ctx context.Context, user *models.User, courseID int64) (*models.Course, error) {
	course, err := s.store.Courses.GetByID(ctx, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if course.UserID != user.ID && !course.IsPublic && !user.IsAdmin {
		return nil, ErrNotFound
	}
	return course, nil
}

// List returns the caller's courses.
func (s *CourseService) List(ctx context.Context, userID string) ([]*models.Course, error) {
	return s.store.Courses.ListByUser(ctx, userID)
}

// ListPublic returns the public course catalog.
func (s *CourseService) ListPublic(ctx context.Context) ([]*models.Course, error) {
	return s.store.Courses.ListPublic(ctx)
}

// UpdateInfo replaces the course title and description; only the owner (or
// an admin) may.
func (s *CourseService) UpdateInfo(ctx context.Context, user *models.User, courseID int64, title, description string) error {
	if title == "" {
		return NewValidationError("title", "must not be empty")
	}
	course, err := s.GetOwned(ctx, user, courseID)
	if err != nil {
		return err
	}
	if course.UserID != user.ID && !user.IsAdmin {
		return ErrNotFound
	}
	return s.store.Courses.UpdateInfo(ctx, courseID, title, description)
}

// SetPublic toggles visibility; only the owner (or an admin) may.
func (s *CourseService) SetPublic(ctx context.Context, user *models.User, courseID int64, public bool) error {
	course, err := s.GetOwned(ctx, user, courseID)
	if err != nil {
		return err
	}
	if course.UserID != user.ID && !user.IsAdmin {
		return ErrNotFound
	}
	return s.store.Courses.SetPublic(ctx, courseID, public)
}

// Delete removes the course, its rows and its vector collection.
func (s *CourseService) Delete(ctx context.Context, user *models.User, courseID int64) error {
	course, err := s.GetOwned(ctx, user, courseID)
	if err != nil {
		return err
	}
	if course.UserID != user.ID && !user.IsAdmin {
		return ErrNotFound
	}
	if err := s.store.Courses.Delete(ctx, courseID); err != nil {
		return err
	}
	if err := s.retrieval.DropCourse(ctx, courseID); err != nil {
		s.logger.Warn("failed to drop vector collection", "course_id", courseID, "error", err)
	}
	return nil
}

// Chapters returns the course's chapters after the ownership check.
func (s *CourseService) Chapters(ctx context.Context, user *models.User, courseID int64) ([]*models.Chapter, error) {
	if _, err := s.GetOwned(ctx, user, courseID); err != nil {
		return nil, err
	}
	return s.store.Chapters.ListByCourse(ctx, courseID)
}

// Chapter returns one chapter after checking it belongs to the course and
// the caller may see the course.
func (s *CourseService) Chapter(ctx context.Context, user *models.User, courseID, chapterID int64) (*models.Chapter, error) {
	if _, err := s.GetOwned(ctx, user, courseID); err != nil {
		return nil, err
	}
	chapter, err := s.store.Chapters.GetByID(ctx, chapterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if chapter.CourseID != courseID {
		return nil, ErrNotFound
	}
	return chapter, nil
}

// UpdateChapterContent replaces a chapter's component source; only the
// course owner (or an admin) may.
func (s *CourseService) UpdateChapterContent(ctx context.Context, user *models.User, courseID, chapterID int64, content string) error {
	if content == "" {
		return NewValidationError("content", "must not be empty")
	}
	course, err := s.GetOwned(ctx, user, courseID)
	if err != nil {
		return err
	}
	if course.UserID != user.ID && !user.IsAdmin {
		return ErrNotFound
	}
	if _, err := s.Chapter(ctx, user, courseID, chapterID); err != nil {
		return err
	}
	return s.store.Chapters.UpdateContent(ctx, chapterID, content)
}

// SetChapterCompletion flips the completion flag and, on completion, logs a
// complete_chapter event.
func (s *CourseService) SetChapterCompletion(ctx context.Context, user *models.User, courseID, chapterID int64, completed bool) error {
	if _, err := s.Chapter(ctx, user, courseID, chapterID); err != nil {
		return err
	}
	if err := s.store.Chapters.SetCompleted(ctx, chapterID, completed); err != nil {
		return err
	}
	if completed {
		if err := s.store.Usage.Log(ctx, &models.UsageEvent{
			UserID: user.ID, CourseID: &courseID, ChapterID: &chapterID,
			Action: models.ActionCompleteChapter,
		}); err != nil {
			s.logger.Warn("failed to log chapter completion", "error", err)
		}
	}
	return nil
}
