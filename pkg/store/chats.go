package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexora-ai/nexora/pkg/models"
)

// ChatStore persists course-scoped chat history.
type ChatStore struct {
	db *sql.DB
}

// Append stores one chat turn and returns its id.
func (s *ChatStore) Append(ctx context.Context, m *models.ChatMessage) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO chat_messages (course_id, user_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		m.CourseID, m.UserID, m.Role, m.Content).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append chat message: %w", err)
	}
	return id, nil
}

// History returns a user's chat turns for a course, oldest first, capped at
// limit (0 means no cap).
func (s *ChatStore) History(ctx context.Context, userID string, courseID int64, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, course_id, user_id, role, content, created_at
		FROM chat_messages WHERE user_id = $1 AND course_id = $2 ORDER BY id`
	args := []any{userID, courseID}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	var msgs []*models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.CourseID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// Clear removes a user's chat history for a course.
func (s *ChatStore) Clear(ctx context.Context, userID string, courseID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}
