package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexora-ai/nexora/pkg/models"
)

func TestServicePutGetDelete(t *testing.T) {
	s := NewService()

	assert.Nil(t, s.Get("u1", 1))

	s.Put(&CourseState{UserID: "u1", CourseID: 1, Query: "learn go"})
	st := s.Get("u1", 1)
	require.NotNil(t, st)
	assert.Equal(t, "learn go", st.Query)

	// Sessions are keyed by user and course together.
	assert.Nil(t, s.Get("u2", 1))
	assert.Nil(t, s.Get("u1", 2))

	s.Delete("u1", 1)
	assert.Nil(t, s.Get("u1", 1))
}

func TestServiceUpdate(t *testing.T) {
	s := NewService()
	s.Put(&CourseState{UserID: "u1", CourseID: 1})

	s.Update("u1", 1, func(st *CourseState) {
		st.Title = "Distributed Systems"
	})
	assert.Equal(t, "Distributed Systems", s.Get("u1", 1).Title)

	// Updating a missing session is a no-op, not a panic.
	s.Update("ghost", 9, func(st *CourseState) {
		st.Title = "never"
	})
}

func TestAppendChapterKeepsIndexOrder(t *testing.T) {
	s := NewService()
	s.Put(&CourseState{UserID: "u1", CourseID: 1})

	// Chapters finish out of order under the concurrent fan-out.
	s.AppendChapter("u1", 1, &models.Chapter{Index: 3, Caption: "Gamma", Summary: "third"})
	s.AppendChapter("u1", 1, &models.Chapter{Index: 1, Caption: "Alpha", Summary: "first"})
	s.AppendChapter("u1", 1, &models.Chapter{Index: 2, Caption: "Beta", Summary: "second"})

	st := s.Get("u1", 1)
	require.Len(t, st.Chapters, 3)
	assert.Equal(t, 1, st.Chapters[0].Index)
	assert.Equal(t, 2, st.Chapters[1].Index)
	assert.Equal(t, 3, st.Chapters[2].Index)

	want := "Chapter 1: Alpha\nfirst\n\nChapter 2: Beta\nsecond\n\nChapter 3: Gamma\nthird"
	assert.Equal(t, want, st.ChaptersStr)
}

func TestAppendChapterSingle(t *testing.T) {
	s := NewService()
	s.Put(&CourseState{UserID: "u1", CourseID: 1})

	s.AppendChapter("u1", 1, &models.Chapter{Index: 1, Caption: "Intro", Summary: "overview"})
	assert.Equal(t, "Chapter 1: Intro\noverview", s.Get("u1", 1).ChaptersStr)
}
