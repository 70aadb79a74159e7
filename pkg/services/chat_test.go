package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexora-ai/nexora/pkg/agent"
	"github.com/nexora-ai/nexora/pkg/config"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
	testdb "github.com/nexora-ai/nexora/test/database"
)

// fakeTutorLLM returns a canned answer for every completion.
type fakeTutorLLM struct {
	answer string
}

func (f *fakeTutorLLM) Chat(context.Context, string, []agent.Message) (string, error) {
	return f.answer, nil
}

func (f *fakeTutorLLM) ChatStream(_ context.Context, _ string, _ []agent.Message, onDelta func(string) error) (string, error) {
	if onDelta != nil {
		if err := onDelta(f.answer); err != nil {
			return "", err
		}
	}
	return f.answer, nil
}

func newChatFixture(t *testing.T) (*ChatService, *store.Store, *models.User, int64, int64) {
	t.Helper()
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()

	owner := &models.User{
		ID: uuid.NewString(), Username: "o_" + uuid.NewString()[:8],
		Email: uuid.NewString() + "@example.com", PasswordHash: "x",
		IsActive: true, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Users.Create(ctx, owner))

	courseID, err := st.Courses.Create(ctx, &models.Course{
		UserID: owner.ID, Query: "learn go", TotalTimeHours: 1,
		Language: "English", Difficulty: "Beginner", Status: models.CourseStatusCreating,
	})
	require.NoError(t, err)
	chapterID, err := st.Chapters.Create(ctx, &models.Chapter{
		CourseID: courseID, Index: 1, Caption: "Goroutines", Summary: "s",
		Content: "() => {<p>x</p>}", TimeMinutes: 10,
	})
	require.NoError(t, err)

	quota := config.QuotaConfig{MaxCourseCreations: 10, MaxPresentCourses: 10, MaxChatUsage: 10}
	courses := NewCourseService(st, quota, nil, nil, nil, slog.Default())
	chatAgent := agent.NewChatAgent(&fakeTutorLLM{answer: "they are lightweight threads"}, "fast")
	svc := NewChatService(st, courses, chatAgent, quota, slog.Default())
	return svc, st, owner, courseID, chapterID
}

func TestStreamAddressesChapterByID(t *testing.T) {
	svc, st, owner, courseID, chapterID := newChatFixture(t)
	ctx := context.Background()

	var got []string
	err := svc.Stream(ctx, owner, chapterID, "what are goroutines?", func(delta string) error {
		got = append(got, delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"they are lightweight threads"}, got)

	history, err := st.Chats.History(ctx, owner.ID, courseID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, agent.RoleUser, history[0].Role)
	assert.Equal(t, agent.RoleAssistant, history[1].Role)
}

func TestStreamAccessRules(t *testing.T) {
	svc, st, owner, courseID, chapterID := newChatFixture(t)
	ctx := context.Background()

	stranger := &models.User{
		ID: uuid.NewString(), Username: "s_" + uuid.NewString()[:8],
		Email: uuid.NewString() + "@example.com", PasswordHash: "x",
		IsActive: true, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Users.Create(ctx, stranger))

	noop := func(string) error { return nil }

	err := svc.Stream(ctx, stranger, chapterID, "hi", noop)
	assert.ErrorIs(t, err, ErrForbidden)

	// Public courses open the chapter to everyone.
	require.NoError(t, st.Courses.SetPublic(ctx, courseID, true))
	assert.NoError(t, svc.Stream(ctx, stranger, chapterID, "hi", noop))

	err = svc.Stream(ctx, owner, chapterID+999, "hi", noop)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStreamRejectsBadMessages(t *testing.T) {
	svc, _, owner, _, chapterID := newChatFixture(t)
	ctx := context.Background()
	noop := func(string) error { return nil }

	var verr *ValidationError
	assert.ErrorAs(t, svc.Stream(ctx, owner, chapterID, "", noop), &verr)
	assert.ErrorAs(t, svc.Stream(ctx, owner, chapterID, strings.Repeat("a", 2001), noop), &verr)
}
