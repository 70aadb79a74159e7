package cleanup

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
	testdb "github.com/nexora-ai/nexora/test/database"
)

func createCourse(t *testing.T, st *store.Store, db *sql.DB, userID string, status models.CourseStatus, age time.Duration) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := st.Courses.Create(ctx, &models.Course{
		UserID: userID, Query: "q", TotalTimeHours: 1,
		Language: "English", Difficulty: "Beginner", Status: models.CourseStatusCreating,
	})
	require.NoError(t, err)
	if status != models.CourseStatusCreating {
		require.NoError(t, st.Courses.UpdateStatus(ctx, id, status, ""))
	}
	if age > 0 {
		_, err = db.ExecContext(ctx, `UPDATE courses SET created_at = $1 WHERE id = $2`,
			time.Now().Add(-age), id)
		require.NoError(t, err)
	}
	return id
}

func TestSweepFailsStuckCourses(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()

	userID := uuid.NewString()
	require.NoError(t, st.Users.Create(ctx, &models.User{
		ID: userID, Username: "u_" + userID[:8], Email: userID + "@example.com",
		PasswordHash: "x", IsActive: true, CreatedAt: time.Now().UTC(),
	}))

	stuck := createCourse(t, st, client.DB(), userID, models.CourseStatusCreating, 3*time.Hour)
	fresh := createCourse(t, st, client.DB(), userID, models.CourseStatusCreating, 0)
	finished := createCourse(t, st, client.DB(), userID, models.CourseStatusFinished, 3*time.Hour)

	svc := NewService(st, time.Minute, 2*time.Hour, slog.Default())
	svc.sweep(ctx)

	course, err := st.Courses.GetByID(ctx, stuck)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusFailed, course.Status)
	assert.Equal(t, timeoutMessage, course.ErrorMsg)

	course, err = st.Courses.GetByID(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusCreating, course.Status)

	course, err = st.Courses.GetByID(ctx, finished)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusFinished, course.Status)
}
