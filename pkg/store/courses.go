package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nexora-ai/nexora/pkg/models"
)

// CourseStore persists courses.
type CourseStore struct {
	db *sql.DB
}

const courseColumns = `id, user_id, query, total_time_hours, language, difficulty, status,
	session_id, title, description, image_url, chapter_count, error_msg, is_public, created_at`

func scanCourse(row interface{ Scan(...any) error }) (*models.Course, error) {
	var c models.Course
	var sessionID, title, description, imageURL, errorMsg sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.Query, &c.TotalTimeHours, &c.Language,
		&c.Difficulty, &c.Status, &sessionID, &title, &description, &imageURL,
		&c.ChapterCount, &errorMsg, &c.IsPublic, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.SessionID = sessionID.String
	c.Title = title.String
	c.Description = description.String
	c.ImageURL = imageURL.String
	c.ErrorMsg = errorMsg.String
	return &c, nil
}

// Create inserts a placeholder course in CREATING state and returns its id.
func (s *CourseStore) Create(ctx context.Context, c *models.Course) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO courses (user_id, query, total_time_hours, language, difficulty, status, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		c.UserID, c.Query, c.TotalTimeHours, c.Language, c.Difficulty, c.Status, nullString(c.SessionID)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create course: %w", err)
	}
	return id, nil
}

// GetByID returns the course with the given id, or sql.ErrNoRows.
func (s *CourseStore) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	return scanCourse(row)
}

// GetBySessionID returns the course bound to an orchestration session.
func (s *CourseStore) GetBySessionID(ctx context.Context, sessionID string) (*models.Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE session_id = $1`, sessionID)
	return scanCourse(row)
}

// ListByUser returns the user's courses newest first.
func (s *CourseStore) ListByUser(ctx context.Context, userID string) ([]*models.Course, error) {
	return s.list(ctx, `SELECT `+courseColumns+` FROM courses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListPublic returns all public finished courses newest first.
func (s *CourseStore) ListPublic(ctx context.Context) ([]*models.Course, error) {
	return s.list(ctx, `SELECT `+courseColumns+` FROM courses
		WHERE is_public = TRUE AND status = $1 ORDER BY created_at DESC`, models.CourseStatusFinished)
}

// ListStuck returns non-terminal courses created before cutoff.
func (s *CourseStore) ListStuck(ctx context.Context, cutoff time.Time) ([]*models.Course, error) {
	return s.list(ctx, `SELECT `+courseColumns+` FROM courses
		WHERE status IN ($1, $2) AND created_at < $3`,
		models.CourseStatusCreating, models.CourseStatusUpdating, cutoff)
}

func (s *CourseStore) list(ctx context.Context, query string, args ...any) ([]*models.Course, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// UpdateInfo stores the info agent's output on the placeholder course.
func (s *CourseStore) UpdateInfo(ctx context.Context, id int64, title, description string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE courses SET title = $1, description = $2 WHERE id = $3`, title, description, id)
	if err != nil {
		return fmt.Errorf("failed to update course info: %w", err)
	}
	return nil
}

// SetSynthesisInfo persists the first agent round-trip in one statement:
// session id, title, description and cover image URL.
func (s *CourseStore) SetSynthesisInfo(ctx context.Context, id int64, sessionID, title, description, imageURL string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE courses SET session_id = $1, title = $2, description = $3, image_url = $4
		WHERE id = $5`,
		sessionID, title, description, nullString(imageURL), id)
	if err != nil {
		return fmt.Errorf("failed to store synthesis info: %w", err)
	}
	return nil
}

// UpdateImageURL stores the cover image URL.
func (s *CourseStore) UpdateImageURL(ctx context.Context, id int64, imageURL string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE courses SET image_url = $1 WHERE id = $2`, imageURL, id)
	if err != nil {
		return fmt.Errorf("failed to update course image: %w", err)
	}
	return nil
}

// UpdateChapterCount stores the planned chapter count.
func (s *CourseStore) UpdateChapterCount(ctx context.Context, id int64, count int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE courses SET chapter_count = $1 WHERE id = $2`, count, id)
	if err != nil {
		return fmt.Errorf("failed to update chapter count: %w", err)
	}
	return nil
}

// UpdateStatus moves the course to a new lifecycle state. errorMsg is stored
// verbatim; pass "" to clear it.
func (s *CourseStore) UpdateStatus(ctx context.Context, id int64, status models.CourseStatus, errorMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE courses SET status = $1, error_msg = $2 WHERE id = $3`,
		status, nullString(errorMsg), id)
	if err != nil {
		return fmt.Errorf("failed to update course status: %w", err)
	}
	return nil
}

// SetPublic toggles course visibility.
func (s *CourseStore) SetPublic(ctx context.Context, id int64, public bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE courses SET is_public = $1 WHERE id = $2`, public, id)
	if err != nil {
		return fmt.Errorf("failed to update course visibility: %w", err)
	}
	return nil
}

// Delete removes a course; chapters, questions, notes and chat messages go
// with it via FK cascades. Bound uploads are unbound, not deleted.
func (s *CourseStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`UPDATE documents SET course_id = NULL WHERE course_id = $1`,
		`UPDATE images SET course_id = NULL WHERE course_id = $1`,
		`DELETE FROM courses WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete course: %w", err)
		}
	}
	return tx.Commit()
}

// CountByUser returns how many courses the user owns, and how many of those
// are not failed (the "present" count quota gating uses).
func (s *CourseStore) CountByUser(ctx context.Context, userID string) (total, present int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status <> $2)
		FROM courses WHERE user_id = $1`,
		userID, models.CourseStatusFailed).Scan(&total, &present)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return total, present, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
