package database

import (
	"context"
	stdsql "database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nexora-ai/nexora/pkg/config"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
)

// newTestClient connects to an external PostgreSQL when CI_DATABASE_URL is
// set, otherwise spins up a throwaway container, and applies the embedded
// migrations either way.
func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	connStr := os.Getenv("CI_DATABASE_URL")
	if connStr == "" {
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		connStr, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	db, err := stdsql.Open("pgx", connStr)
	require.NoError(t, err)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	require.NoError(t, db.PingContext(ctx))

	require.NoError(t, Migrate(db, config.DatabaseConfig{Database: "test"}))

	client := NewClientFromDB(db)
	t.Cleanup(func() { client.Close() })
	return client
}

func newTestUser(t *testing.T, st *store.Store, id string) *models.User {
	u := &models.User{
		ID:           id,
		Username:     "user_" + id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.Users.Create(context.Background(), u))
	return u
}

func TestClientHealth(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	health, err := Health(ctx, client.DB())
	require.NoError(t, err)
	assert.True(t, health.Healthy)
	assert.Empty(t, health.Error)
	assert.GreaterOrEqual(t, health.LatencyMs, int64(0))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	client := newTestClient(t)

	// A second run must be a no-op, not an error.
	require.NoError(t, Migrate(client.DB(), config.DatabaseConfig{Database: "test"}))
}

func TestCourseRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	st := store.New(client.DB())
	user := newTestUser(t, st, "u-roundtrip")

	courseID, err := st.Courses.Create(ctx, &models.Course{
		UserID:         user.ID,
		Query:          "learn distributed systems",
		TotalTimeHours: 4,
		Language:       "English",
		Difficulty:     "Intermediate",
		Status:         models.CourseStatusCreating,
		SessionID:      "sess-roundtrip",
	})
	require.NoError(t, err)

	course, err := st.Courses.GetByID(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusCreating, course.Status)
	assert.Equal(t, "sess-roundtrip", course.SessionID)

	chapterID, err := st.Chapters.Create(ctx, &models.Chapter{
		CourseID:    courseID,
		Index:       1,
		Caption:     "Consensus",
		Summary:     "raft basics",
		Content:     "() => {<p>Consensus</p>}",
		TimeMinutes: 30,
	})
	require.NoError(t, err)

	chapters, err := st.Chapters.ListByCourse(ctx, courseID)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, chapterID, chapters[0].ID)

	require.NoError(t, st.Courses.UpdateStatus(ctx, courseID, models.CourseStatusFinished, ""))
	course, err = st.Courses.GetByID(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusFinished, course.Status)
}

func TestCountByUserExcludesFailedFromPresent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	st := store.New(client.DB())
	user := newTestUser(t, st, "u-count")

	okID, err := st.Courses.Create(ctx, &models.Course{
		UserID: user.ID, Query: "a", TotalTimeHours: 1,
		Language: "English", Difficulty: "Beginner", Status: models.CourseStatusCreating,
	})
	require.NoError(t, err)
	require.NoError(t, st.Courses.UpdateStatus(ctx, okID, models.CourseStatusFinished, ""))

	failedID, err := st.Courses.Create(ctx, &models.Course{
		UserID: user.ID, Query: "b", TotalTimeHours: 1,
		Language: "English", Difficulty: "Beginner", Status: models.CourseStatusCreating,
	})
	require.NoError(t, err)
	require.NoError(t, st.Courses.UpdateStatus(ctx, failedID, models.CourseStatusFailed, "boom"))

	total, present, err := st.Courses.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, present)
}

func TestSearchRanksCourseHitsFirst(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	st := store.New(client.DB())
	user := newTestUser(t, st, "u-search")

	courseID, err := st.Courses.Create(ctx, &models.Course{
		UserID: user.ID, Query: "kubernetes", TotalTimeHours: 2,
		Language: "English", Difficulty: "Intermediate", Status: models.CourseStatusCreating,
	})
	require.NoError(t, err)
	require.NoError(t, st.Courses.UpdateInfo(ctx, courseID, "Kubernetes Operations", "running clusters"))
	require.NoError(t, st.Courses.UpdateStatus(ctx, courseID, models.CourseStatusFinished, ""))

	_, err = st.Chapters.Create(ctx, &models.Chapter{
		CourseID: courseID, Index: 1,
		Caption: "Scheduling in Kubernetes", Summary: "pods and nodes",
		Content: "() => {<p>x</p>}", TimeMinutes: 20,
	})
	require.NoError(t, err)

	results, err := st.Search.Search(ctx, user.ID, "kubernetes", 20)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, store.SearchTypeCourse, results[0].Type, "course title hit must rank first")
	assert.Equal(t, courseID, results[0].ID)
	assert.Equal(t, "Kubernetes Operations", results[0].Title)
	assert.Equal(t, "running clusters", results[0].Description)
	assert.Equal(t, courseID, results[0].CourseID)
	assert.Equal(t, store.SearchTypeChapter, results[1].Type)
	assert.Equal(t, "Scheduling in Kubernetes", results[1].Title)
	assert.Equal(t, courseID, results[1].CourseID)
	assert.Equal(t, "Kubernetes Operations", results[1].CourseTitle)

	// Unfinished courses never surface.
	require.NoError(t, st.Courses.UpdateStatus(ctx, courseID, models.CourseStatusCreating, ""))
	results, err = st.Search.Search(ctx, user.ID, "kubernetes", 20)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLearnTimeCountsChapterVisibility(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	st := store.New(client.DB())
	user := newTestUser(t, st, "u-learn")

	courseID, err := st.Courses.Create(ctx, &models.Course{
		UserID: user.ID, Query: "go", TotalTimeHours: 1,
		Language: "English", Difficulty: "Beginner", Status: models.CourseStatusCreating,
	})
	require.NoError(t, err)
	chapterID, err := st.Chapters.Create(ctx, &models.Chapter{
		CourseID: courseID, Index: 1, Caption: "Intro", Summary: "s",
		Content: "() => {<p>x</p>}", TimeMinutes: 10,
	})
	require.NoError(t, err)

	// Two chapter-scoped pings count, the page-level one does not.
	for i := 0; i < 2; i++ {
		require.NoError(t, st.Usage.Log(ctx, &models.UsageEvent{
			UserID: user.ID, CourseID: &courseID, ChapterID: &chapterID,
			Action: models.ActionSiteVisible,
		}))
	}
	require.NoError(t, st.Usage.Log(ctx, &models.UsageEvent{
		UserID: user.ID, Action: models.ActionSiteVisible,
	}))

	minutes, err := st.Usage.TotalLearnTimeMinutes(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, minutes)
}
