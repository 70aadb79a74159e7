package models

import "time"

// Usage actions form a closed vocabulary; the column stays a free string so
// new actions never need a migration.
const (
	ActionLogin           = "login"
	ActionLogout          = "logout"
	ActionRefresh         = "refresh"
	ActionCreateCourse    = "create_course"
	ActionCompleteChapter = "complete_chapter"
	ActionChat            = "chat"
	ActionGradeQuestion   = "grade_question"
	ActionSearch          = "search"
	ActionSiteVisible     = "site_visible"
	ActionSiteHidden      = "site_hidden"
)

// UsageEvent is one append-only ledger row. Details may hold free text up to
// a full JSON payload.
type UsageEvent struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	CourseID  *int64    `json:"course_id,omitempty"`
	ChapterID *int64    `json:"chapter_id,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
