package models

import "time"

// Document is an uploaded reference file owned by a user and optionally
// bound to a course.
type Document struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	CourseID    *int64    `json:"course_id,omitempty"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Image is an uploaded picture owned by a user and optionally bound to a
// course.
type Image struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	CourseID    *int64    `json:"course_id,omitempty"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
