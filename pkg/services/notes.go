package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
)

// NoteService implements per-chapter user notes.
type NoteService struct {
	store   *store.Store
	courses *CourseService
}

// NewNoteService creates the note service.
func NewNoteService(st *store.Store, courses *CourseService) *NoteService {
	return &NoteService{store: st, courses: courses}
}

// List returns the caller's notes for one chapter.
func (s *NoteService) List(ctx context.Context, user *models.User, courseID, chapterID int64) ([]*models.Note, error) {
	if _, err := s.courses.Chapter(ctx, user, courseID, chapterID); err != nil {
		return nil, err
	}
	return s.store.Notes.ListByChapter(ctx, user.ID, chapterID)
}

// Create attaches a note to a chapter the caller may see.
func (s *NoteService) Create(ctx context.Context, user *models.User, courseID, chapterID int64, text string) (*models.Note, error) {
	if text == "" {
		return nil, NewValidationError("text", "must not be empty")
	}
	if _, err := s.courses.Chapter(ctx, user, courseID, chapterID); err != nil {
		return nil, err
	}
	note := &models.Note{
		CourseID:  courseID,
		ChapterID: chapterID,
		UserID:    user.ID,
		Text:      text,
	}
	id, err := s.store.Notes.Create(ctx, note)
	if err != nil {
		return nil, err
	}
	return s.store.Notes.GetByID(ctx, id)
}

// Update replaces the note text. Notes are private: only their author may
// touch them, admins included.
func (s *NoteService) Update(ctx context.Context, user *models.User, noteID int64, text string) (*models.Note, error) {
	if text == "" {
		return nil, NewValidationError("text", "must not be empty")
	}
	if err := s.getOwn(ctx, user, noteID); err != nil {
		return nil, err
	}
	if err := s.store.Notes.Update(ctx, noteID, text); err != nil {
		return nil, err
	}
	return s.store.Notes.GetByID(ctx, noteID)
}

// Delete removes the caller's note.
func (s *NoteService) Delete(ctx context.Context, user *models.User, noteID int64) error {
	if err := s.getOwn(ctx, user, noteID); err != nil {
		return err
	}
	return s.store.Notes.Delete(ctx, noteID)
}

func (s *NoteService) getOwn(ctx context.Context, user *models.User, noteID int64) error {
	note, err := s.store.Notes.GetByID(ctx, noteID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if note.UserID != user.ID {
		return ErrNotFound
	}
	return nil
}
