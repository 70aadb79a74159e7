package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexora-ai/nexora/pkg/models"
)

// ChapterStore persists chapters.
type ChapterStore struct {
	db *sql.DB
}

const chapterColumns = `id, course_id, index, caption, summary, content, time_minutes, is_completed, image_url, created_at`

func scanChapter(row interface{ Scan(...any) error }) (*models.Chapter, error) {
	var c models.Chapter
	var imageURL sql.NullString
	err := row.Scan(&c.ID, &c.CourseID, &c.Index, &c.Caption, &c.Summary,
		&c.Content, &c.TimeMinutes, &c.IsCompleted, &imageURL, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.ImageURL = imageURL.String
	return &c, nil
}

// Create inserts a chapter row and returns its id. The (course_id, index)
// pair is unique; a duplicate index surfaces as a constraint error.
func (s *ChapterStore) Create(ctx context.Context, c *models.Chapter) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO chapters (course_id, index, caption, summary, content, time_minutes, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		c.CourseID, c.Index, c.Caption, c.Summary, c.Content, c.TimeMinutes, nullString(c.ImageURL)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create chapter: %w", err)
	}
	return id, nil
}

// GetByID returns a chapter, or sql.ErrNoRows.
func (s *ChapterStore) GetByID(ctx context.Context, id int64) (*models.Chapter, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE id = $1`, id)
	return scanChapter(row)
}

// ListByCourse returns the course's chapters ordered by index.
func (s *ChapterStore) ListByCourse(ctx context.Context, courseID int64) ([]*models.Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chapterColumns+` FROM chapters WHERE course_id = $1 ORDER BY index`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*models.Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// SetCompleted marks a chapter as completed.
func (s *ChapterStore) SetCompleted(ctx context.Context, id int64, completed bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chapters SET is_completed = $1 WHERE id = $2`, completed, id)
	if err != nil {
		return fmt.Errorf("failed to update chapter completion: %w", err)
	}
	return nil
}

// UpdateContent replaces the chapter's rendered component source.
func (s *ChapterStore) UpdateContent(ctx context.Context, id int64, content string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chapters SET content = $1 WHERE id = $2`, content, id)
	if err != nil {
		return fmt.Errorf("failed to update chapter content: %w", err)
	}
	return nil
}
