// Package models defines the domain types shared across services, the
// orchestrator and the API layer.
package models

import "time"

// CourseStatus represents the lifecycle state of a course.
type CourseStatus string

// Course lifecycle states. FINISHED and FAILED are terminal.
const (
	CourseStatusCreating CourseStatus = "creating"
	CourseStatusUpdating CourseStatus = "updating"
	CourseStatusFinished CourseStatus = "finished"
	CourseStatusFailed   CourseStatus = "failed"
)

// IsTerminal reports whether the status is a terminal lifecycle state.
func (s CourseStatus) IsTerminal() bool {
	return s == CourseStatusFinished || s == CourseStatusFailed
}

// Course is the learning artifact, the unit of synthesis and of quota
// accounting. Derived fields (title, description, image URL, chapter count)
// are filled in by the orchestrator during generation.
type Course struct {
	ID             int64        `json:"id"`
	UserID         string       `json:"user_id"`
	Query          string       `json:"query"`
	TotalTimeHours int          `json:"total_time_hours"`
	Language       string       `json:"language"`
	Difficulty     string       `json:"difficulty"`
	Status         CourseStatus `json:"status"`
	SessionID      string       `json:"session_id,omitempty"`
	Title          string       `json:"title,omitempty"`
	Description    string       `json:"description,omitempty"`
	ImageURL       string       `json:"image_url,omitempty"`
	ChapterCount   int          `json:"chapter_count"`
	ErrorMsg       string       `json:"error_msg,omitempty"`
	IsPublic       bool         `json:"is_public"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Chapter is one unit of a course. Index is 1-based and dense within the
// course. Content holds the source of a self-contained UI component.
type Chapter struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"course_id"`
	Index       int       `json:"index"`
	Caption     string    `json:"caption"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content"`
	TimeMinutes int       `json:"time_minutes"`
	IsCompleted bool      `json:"is_completed"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChapterPlan is one entry of the planner agent's output.
type ChapterPlan struct {
	Caption string   `json:"caption"`
	Content []string `json:"content"`
	Time    int      `json:"time"`
	Note    string   `json:"note,omitempty"`
}

// CourseRequest carries the user's course creation parameters.
type CourseRequest struct {
	Query       string  `json:"query" binding:"required"`
	TimeHours   int     `json:"time_hours" binding:"required"`
	DocumentIDs []int64 `json:"document_ids"`
	PictureIDs  []int64 `json:"picture_ids"`
	Language    string  `json:"language"`
	Difficulty  string  `json:"difficulty"`
}

// ChatMessage is one turn of a course-scoped chat conversation.
type ChatMessage struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a user note attached to a chapter.
type Note struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	ChapterID int64     `json:"chapter_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
