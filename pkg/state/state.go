// Package state holds the transient per-session working state the
// orchestrator accumulates while synthesizing a course. State lives in
// memory only; everything durable goes through the store.
package state

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nexora-ai/nexora/pkg/models"
)

// CourseState is the working state of one synthesis session, keyed by
// (user, course). Fields are filled in as pipeline stages complete.
type CourseState struct {
	UserID   string
	CourseID int64

	Query          string
	TotalTimeHours int
	Language       string
	Difficulty     string

	Title       string
	Description string
	ImageURL    string

	Plan []models.ChapterPlan

	// Chapters collects finished chapters in index order; ChaptersStr is
	// the running textual digest handed to later chapter generations so
	// they stay coherent with what came before.
	Chapters    []*models.Chapter
	ChaptersStr string

	DocumentIDs []int64
	PictureIDs  []int64

	// Code collects the generated component sources; Errors collects
	// non-fatal problems hit along the way, for diagnostics.
	Code   []string
	Errors []string
}

// Service keeps CourseState per (user, course) with per-entry locking so
// concurrent chapter workers can append safely.
type Service struct {
	mu     sync.Mutex
	states map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	state *CourseState
}

// NewService creates an empty state service.
func NewService() *Service {
	return &Service{states: make(map[string]*entry)}
}

func stateKey(userID string, courseID int64) string {
	return fmt.Sprintf("%s:%d", userID, courseID)
}

// Put stores the initial state for a session, replacing any previous one.
func (s *Service) Put(st *CourseState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[stateKey(st.UserID, st.CourseID)] = &entry{state: st}
}

// Get returns the state for a session, or nil if none exists.
func (s *Service) Get(userID string, courseID int64) *CourseState {
	s.mu.Lock()
	e, ok := s.states[stateKey(userID, courseID)]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Update applies fn under the entry's lock. It is a no-op when the session
// has no state.
func (s *Service) Update(userID string, courseID int64, fn func(*CourseState)) {
	s.mu.Lock()
	e, ok := s.states[stateKey(userID, courseID)]
	s.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
}

// AppendChapter records a finished chapter and extends the textual digest.
// Chapters stay sorted by index regardless of completion order.
func (s *Service) AppendChapter(userID string, courseID int64, ch *models.Chapter) {
	s.Update(userID, courseID, func(st *CourseState) {
		st.Chapters = append(st.Chapters, ch)
		for i := len(st.Chapters) - 1; i > 0 && st.Chapters[i-1].Index > st.Chapters[i].Index; i-- {
			st.Chapters[i-1], st.Chapters[i] = st.Chapters[i], st.Chapters[i-1]
		}
		var b strings.Builder
		for _, c := range st.Chapters {
			fmt.Fprintf(&b, "Chapter %d: %s\n%s\n\n", c.Index, c.Caption, c.Summary)
		}
		st.ChaptersStr = strings.TrimSpace(b.String())
	})
}

// Delete discards a session's state.
func (s *Service) Delete(userID string, courseID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, stateKey(userID, courseID))
}
