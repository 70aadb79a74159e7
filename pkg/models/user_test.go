package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextLoginStreak(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	earlierToday := now.Add(-2 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	tests := []struct {
		name      string
		current   int
		lastLogin *time.Time
		want      int
	}{
		{"first login ever", 0, nil, 1},
		{"consecutive day increments", 4, &yesterday, 5},
		{"same day keeps streak", 4, &earlierToday, 4},
		{"gap resets to one", 9, &lastWeek, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextLoginStreak(tt.current, tt.lastLogin, now))
		})
	}
}

func TestNextLoginStreakDayBoundary(t *testing.T) {
	// 23:59 yesterday followed by 00:01 today is consecutive.
	lastLogin := time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC)
	now := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 3, NextLoginStreak(2, &lastLogin, now))
}

func TestCourseStatusIsTerminal(t *testing.T) {
	assert.True(t, CourseStatusFinished.IsTerminal())
	assert.True(t, CourseStatusFailed.IsTerminal())
	assert.False(t, CourseStatusCreating.IsTerminal())
	assert.False(t, CourseStatusUpdating.IsTerminal())
}

func TestGeneratedQuestionIsMultipleChoice(t *testing.T) {
	mc := GeneratedQuestion{Question: "Pick one", AnswerA: "x", AnswerB: "y", CorrectAnswer: "a"}
	assert.True(t, mc.IsMultipleChoice())

	ot := GeneratedQuestion{Question: "Explain", CorrectAnswer: "because"}
	assert.False(t, ot.IsMultipleChoice())

	// Component-source question text must not influence typing.
	component := GeneratedQuestion{Question: "() => {<Quiz/>}", CorrectAnswer: "b"}
	assert.False(t, component.IsMultipleChoice())
}
