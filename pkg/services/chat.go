package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nexora-ai/nexora/pkg/agent"
	"github.com/nexora-ai/nexora/pkg/config"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
)

// chatHistoryLimit caps how many stored turns are replayed into the prompt.
const chatHistoryLimit = 20

// maxChatMessageChars bounds a single learner message.
const maxChatMessageChars = 2000

// ChatService streams tutoring answers scoped to a chapter.
type ChatService struct {
	store   *store.Store
	courses *CourseService
	chat    *agent.ChatAgent
	quota   config.QuotaConfig
	logger  *slog.Logger
}

// NewChatService creates the chat service.
func NewChatService(st *store.Store, courses *CourseService, chat *agent.ChatAgent,
	quota config.QuotaConfig, logger *slog.Logger) *ChatService {
	return &ChatService{
		store:   st,
		courses: courses,
		chat:    chat,
		quota:   quota,
		logger:  logger.With("component", "chat_service"),
	}
}

// Stream answers one chat message about a chapter, invoking onDelta per
// chunk. The chapter is addressed by its id alone; access follows the
// owning course (owner, public or admin). Both turns are persisted and the
// usage ledger gets a chat event.
func (s *ChatService) Stream(ctx context.Context, user *models.User, chapterID int64,
	message string, onDelta func(string) error) error {
	if message == "" {
		return NewValidationError("message", "must not be empty")
	}
	if len(message) > maxChatMessageChars {
		return NewValidationError("message", fmt.Sprintf("must be at most %d characters", maxChatMessageChars))
	}
	chapter, err := s.store.Chapters.GetByID(ctx, chapterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	courseID := chapter.CourseID
	course, err := s.store.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !course.IsPublic && course.UserID != user.ID && !user.IsAdmin {
		return ErrForbidden
	}

	if !user.IsAdmin {
		used, err := s.store.Usage.CountAction(ctx, user.ID, models.ActionChat)
		if err != nil {
			return err
		}
		if used >= s.quota.MaxChatUsage {
			return &QuotaError{
				Code:    "MAX_CHAT_USAGE_REACHED",
				Limit:   s.quota.MaxChatUsage,
				Message: "You have reached the chat usage limit.",
			}
		}
	}

	history, err := s.store.Chats.History(ctx, user.ID, courseID, chatHistoryLimit)
	if err != nil {
		return err
	}

	messages := []agent.Message{{
		Role: agent.RoleSystem,
		Content: fmt.Sprintf(
			"You are a tutor helping a learner with the chapter %q. "+
				"Ground your answers in the chapter content below and keep them short.\n\n%s",
			chapter.Caption, chapter.Content),
	}}
	for _, m := range history {
		messages = append(messages, agent.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, agent.Message{Role: agent.RoleUser, Content: message})

	answer, err := s.chat.Stream(ctx, messages, onDelta)
	if err != nil {
		return err
	}

	// Persistence failures after a delivered answer are logged, not
	// surfaced: the learner already has the reply.
	persistCtx := context.WithoutCancel(ctx)
	if _, err := s.store.Chats.Append(persistCtx, &models.ChatMessage{
		CourseID: courseID, UserID: user.ID, Role: agent.RoleUser, Content: message,
	}); err != nil {
		s.logger.Warn("failed to persist chat turn", "error", err)
	}
	if _, err := s.store.Chats.Append(persistCtx, &models.ChatMessage{
		CourseID: courseID, UserID: user.ID, Role: agent.RoleAssistant, Content: answer,
	}); err != nil {
		s.logger.Warn("failed to persist chat turn", "error", err)
	}
	if err := s.store.Usage.Log(persistCtx, &models.UsageEvent{
		UserID: user.ID, CourseID: &courseID, ChapterID: &chapterID, Action: models.ActionChat,
	}); err != nil {
		s.logger.Warn("failed to log chat event", "error", err)
	}
	return nil
}

// History returns the stored conversation for a course.
func (s *ChatService) History(ctx context.Context, user *models.User, courseID int64) ([]*models.ChatMessage, error) {
	if _, err := s.courses.GetOwned(ctx, user, courseID); err != nil {
		return nil, err
	}
	return s.store.Chats.History(ctx, user.ID, courseID, 0)
}

// ClearHistory deletes the caller's stored conversation for a course.
func (s *ChatService) ClearHistory(ctx context.Context, user *models.User, courseID int64) error {
	if _, err := s.courses.GetOwned(ctx, user, courseID); err != nil {
		return err
	}
	return s.store.Chats.Clear(ctx, user.ID, courseID)
}
