package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexora-ai/nexora/pkg/models"
)

// NoteStore persists per-chapter user notes.
type NoteStore struct {
	db *sql.DB
}

// Create inserts a note and returns its id.
func (s *NoteStore) Create(ctx context.Context, n *models.Note) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO notes (course_id, chapter_id, user_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		n.CourseID, n.ChapterID, n.UserID, n.Text).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create note: %w", err)
	}
	return id, nil
}

// GetByID returns a note, or sql.ErrNoRows.
func (s *NoteStore) GetByID(ctx context.Context, id int64) (*models.Note, error) {
	var n models.Note
	err := s.db.QueryRowContext(ctx, `
		SELECT id, course_id, chapter_id, user_id, text, created_at, updated_at
		FROM notes WHERE id = $1`, id).
		Scan(&n.ID, &n.CourseID, &n.ChapterID, &n.UserID, &n.Text, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByChapter returns a user's notes for one chapter, oldest first.
func (s *NoteStore) ListByChapter(ctx context.Context, userID string, chapterID int64) ([]*models.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, course_id, chapter_id, user_id, text, created_at, updated_at
		FROM notes WHERE user_id = $1 AND chapter_id = $2 ORDER BY created_at`, userID, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.CourseID, &n.ChapterID, &n.UserID, &n.Text, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// Update replaces the note text.
func (s *NoteStore) Update(ctx context.Context, id int64, text string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notes SET text = $1, updated_at = now() WHERE id = $2`, text, id)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

// Delete removes a note.
func (s *NoteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}
