package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexora-ai/nexora/pkg/models"
)

// SearchStore runs text search over a user's courses and chapters.
type SearchStore struct {
	db *sql.DB
}

// SearchResult is one search hit, either a whole course or one of its
// chapters. ID is the hit's own id; CourseTitle is set on chapter hits only.
type SearchResult struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CourseID    int64  `json:"course_id,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`
}

// Search result types.
const (
	SearchTypeCourse  = "course"
	SearchTypeChapter = "chapter"
)

// Search matches the query against the user's course titles and descriptions
// first, then chapter captions and summaries. Title matches rank above
// chapter matches; within each group newest courses come first.
func (s *SearchStore) Search(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, title, description, course_id, course_title FROM (
			SELECT c.id AS id, 'course' AS type,
			       COALESCE(c.title, c.query) AS title,
			       COALESCE(c.description, '') AS description,
			       c.id AS course_id, '' AS course_title,
			       0 AS rank, c.created_at
			FROM courses c
			WHERE c.user_id = $1 AND c.status = $2
			  AND (c.title ILIKE $3 OR c.description ILIKE $3)
			UNION ALL
			SELECT ch.id, 'chapter', ch.caption, ch.summary,
			       c.id, COALESCE(c.title, c.query),
			       1 AS rank, c.created_at
			FROM chapters ch
			JOIN courses c ON c.id = ch.course_id
			WHERE c.user_id = $1 AND c.status = $2
			  AND (ch.caption ILIKE $3 OR ch.summary ILIKE $3)
		) hits
		ORDER BY rank, created_at DESC
		LIMIT $4`,
		userID, models.CourseStatusFinished, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Type, &r.Title, &r.Description, &r.CourseID, &r.CourseTitle); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
