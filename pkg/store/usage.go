package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexora-ai/nexora/pkg/models"
)

// UsageStore appends to and aggregates over the usage ledger. The ledger is
// append-only; statistics are always computed by scanning, never by keeping
// counters.
type UsageStore struct {
	db *sql.DB
}

// Log appends one event to the ledger.
func (s *UsageStore) Log(ctx context.Context, e *models.UsageEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (user_id, course_id, chapter_id, action, details)
		VALUES ($1, $2, $3, $4, $5)`,
		e.UserID, e.CourseID, e.ChapterID, e.Action, nullString(e.Details))
	if err != nil {
		return fmt.Errorf("failed to log usage event: %w", err)
	}
	return nil
}

// CountAction returns how many events of one action a user has logged.
func (s *UsageStore) CountAction(ctx context.Context, userID, action string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM usage_events WHERE user_id = $1 AND action = $2`,
		userID, action).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s events: %w", action, err)
	}
	return n, nil
}

// TotalLearnTimeMinutes derives learning time from visibility pings: each
// site_visible event carrying both a course and a chapter counts as ten
// minutes of attention.
func (s *UsageStore) TotalLearnTimeMinutes(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM usage_events
		WHERE user_id = $1 AND action = $2 AND course_id IS NOT NULL AND chapter_id IS NOT NULL`,
		userID, models.ActionSiteVisible).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to compute learn time: %w", err)
	}
	return n * 10, nil
}

// ListByUser returns a user's most recent events, newest first.
func (s *UsageStore) ListByUser(ctx context.Context, userID string, limit int) ([]*models.UsageEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, course_id, chapter_id, action, details, created_at
		FROM usage_events WHERE user_id = $1 ORDER BY id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage events: %w", err)
	}
	defer rows.Close()

	var events []*models.UsageEvent
	for rows.Next() {
		var e models.UsageEvent
		var courseID, chapterID sql.NullInt64
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &courseID, &chapterID, &e.Action, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		if courseID.Valid {
			e.CourseID = &courseID.Int64
		}
		if chapterID.Valid {
			e.ChapterID = &chapterID.Int64
		}
		e.Details = details.String
		events = append(events, &e)
	}
	return events, rows.Err()
}
