package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/orchestrator"
	"github.com/nexora-ai/nexora/pkg/store"
)

// FeedbackResult is the graded outcome returned to the learner.
type FeedbackResult struct {
	Points   int    `json:"points"`
	Feedback string `json:"feedback"`
}

// QuestionService implements practice-question answering and grading.
type QuestionService struct {
	store        *store.Store
	courses      *CourseService
	orchestrator *orchestrator.Orchestrator
	logger       *slog.Logger
}

// NewQuestionService creates the question service.
func NewQuestionService(st *store.Store, courses *CourseService, orch *orchestrator.Orchestrator, logger *slog.Logger) *QuestionService {
	return &QuestionService{
		store:        st,
		courses:      courses,
		orchestrator: orch,
		logger:       logger.With("component", "question_service"),
	}
}

// ListByChapter returns a chapter's questions after the ownership check.
func (s *QuestionService) ListByChapter(ctx context.Context, user *models.User, courseID, chapterID int64) ([]*models.PracticeQuestion, error) {
	if _, err := s.courses.Chapter(ctx, user, courseID, chapterID); err != nil {
		return nil, err
	}
	return s.store.Questions.ListByChapter(ctx, chapterID)
}

func (s *QuestionService) getOwned(ctx context.Context, user *models.User, courseID, chapterID, questionID int64) (*models.PracticeQuestion, error) {
	if _, err := s.courses.Chapter(ctx, user, courseID, chapterID); err != nil {
		return nil, err
	}
	q, err := s.store.Questions.GetByID(ctx, questionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if q.ChapterID != chapterID {
		return nil, ErrNotFound
	}
	return q, nil
}

// SaveAnswer stores the learner's answer. Multiple-choice answers are scored
// immediately by letter comparison; open-text answers wait for Feedback.
func (s *QuestionService) SaveAnswer(ctx context.Context, user *models.User, courseID, chapterID, questionID int64, answer string) (*models.PracticeQuestion, error) {
	if answer == "" {
		return nil, NewValidationError("users_answer", "must not be empty")
	}
	q, err := s.getOwned(ctx, user, courseID, chapterID, questionID)
	if err != nil {
		return nil, err
	}

	if q.Type == models.QuestionTypeMC {
		points := 0
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer)) {
			points = 2
		}
		if err := s.store.Questions.SaveAnswer(ctx, questionID, answer, points, q.Explanation); err != nil {
			return nil, err
		}
	} else {
		if err := s.store.Questions.SaveUserAnswer(ctx, questionID, answer); err != nil {
			return nil, err
		}
	}
	return s.store.Questions.GetByID(ctx, questionID)
}

// Feedback grades the answer. Open-text questions go through the Grader
// agent; multiple-choice grading is local and deterministic.
func (s *QuestionService) Feedback(ctx context.Context, user *models.User, courseID, chapterID, questionID int64, answer string) (*FeedbackResult, error) {
	if answer == "" {
		return nil, NewValidationError("users_answer", "must not be empty")
	}
	q, err := s.getOwned(ctx, user, courseID, chapterID, questionID)
	if err != nil {
		return nil, err
	}

	if q.Type == models.QuestionTypeMC {
		points := 0
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer)) {
			points = 2
		}
		if err := s.store.Questions.SaveAnswer(ctx, questionID, answer, points, q.Explanation); err != nil {
			return nil, err
		}
		return &FeedbackResult{Points: points, Feedback: q.Explanation}, nil
	}

	result, err := s.orchestrator.Grade(ctx, user.ID, q, answer)
	if err != nil {
		return nil, err
	}
	return &FeedbackResult{Points: result.Points, Feedback: result.Explanation}, nil
}
