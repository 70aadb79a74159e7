package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
)

// VisibilityEvent is the payload of the frontend's visibility ping.
type VisibilityEvent struct {
	URL       string `json:"url,omitempty"`
	CourseID  *int64 `json:"course_id,omitempty"`
	ChapterID *int64 `json:"chapter_id,omitempty"`
	Visible   *bool  `json:"visible"`
	Timestamp int64  `json:"timestamp"`
}

// StatsSummary aggregates a user's ledger-derived statistics.
type StatsSummary struct {
	CreatedCourses        int `json:"created_courses"`
	ChatMessages          int `json:"chat_messages"`
	TotalLearnTimeMinutes int `json:"total_learn_time_minutes"`
	LoginStreak           int `json:"login_streak"`
}

// StatisticsService records visibility pings and derives usage summaries.
type StatisticsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewStatisticsService creates the statistics service.
func NewStatisticsService(st *store.Store, logger *slog.Logger) *StatisticsService {
	return &StatisticsService{store: st, logger: logger.With("component", "statistics_service")}
}

// RecordVisibility appends a site_visible or site_hidden event. Learn time
// is later derived from visible pings that carry both course and chapter.
func (s *StatisticsService) RecordVisibility(ctx context.Context, userID string, ev VisibilityEvent) error {
	if ev.Visible == nil {
		return NewValidationError("visible", "is required")
	}
	action := models.ActionSiteHidden
	if *ev.Visible {
		action = models.ActionSiteVisible
	}
	return s.store.Usage.Log(ctx, &models.UsageEvent{
		UserID:    userID,
		CourseID:  ev.CourseID,
		ChapterID: ev.ChapterID,
		Action:    action,
		Details:   ev.URL,
		CreatedAt: time.Now(),
	})
}

// Summary computes the user's counters by scanning the ledger.
func (s *StatisticsService) Summary(ctx context.Context, user *models.User) (*StatsSummary, error) {
	created, err := s.store.Usage.CountAction(ctx, user.ID, models.ActionCreateCourse)
	if err != nil {
		return nil, err
	}
	chats, err := s.store.Usage.CountAction(ctx, user.ID, models.ActionChat)
	if err != nil {
		return nil, err
	}
	minutes, err := s.store.Usage.TotalLearnTimeMinutes(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &StatsSummary{
		CreatedCourses:        created,
		ChatMessages:          chats,
		TotalLearnTimeMinutes: minutes,
		LoginStreak:           user.LoginStreak,
	}, nil
}
