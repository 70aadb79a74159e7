package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexora-ai/nexora/pkg/config"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
	testdb "github.com/nexora-ai/nexora/test/database"
)

func newQuotaFixture(t *testing.T, quota config.QuotaConfig) (*CourseService, *store.Store, *models.User) {
	t.Helper()
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())

	user := &models.User{
		ID: uuid.NewString(), Username: "u_" + uuid.NewString()[:8],
		Email: uuid.NewString() + "@example.com", PasswordHash: "x",
		IsActive: true, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Users.Create(context.Background(), user))

	svc := NewCourseService(st, quota, nil, nil, nil, slog.Default())
	return svc, st, user
}

func TestCheckQuotaLifetimeCreations(t *testing.T) {
	svc, st, user := newQuotaFixture(t, config.QuotaConfig{MaxCourseCreations: 2, MaxPresentCourses: 10})
	ctx := context.Background()

	require.NoError(t, svc.CheckQuota(ctx, user))

	// Lifetime creations come from the ledger, so even deleted courses count.
	for i := 0; i < 2; i++ {
		require.NoError(t, st.Usage.Log(ctx, &models.UsageEvent{
			UserID: user.ID, Action: models.ActionCreateCourse,
		}))
	}

	err := svc.CheckQuota(ctx, user)
	require.Error(t, err)
	var qerr *QuotaError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, QuotaCodeMaxCreations, qerr.Code)
	assert.Equal(t, 2, qerr.Limit)
}

func TestCheckQuotaPresentCourses(t *testing.T) {
	svc, st, user := newQuotaFixture(t, config.QuotaConfig{MaxCourseCreations: 10, MaxPresentCourses: 1})
	ctx := context.Background()

	courseID, err := st.Courses.Create(ctx, &models.Course{
		UserID: user.ID, Query: "q", TotalTimeHours: 1,
		Language: "English", Difficulty: "Beginner", Status: models.CourseStatusCreating,
	})
	require.NoError(t, err)

	err = svc.CheckQuota(ctx, user)
	require.Error(t, err)
	var qerr *QuotaError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, QuotaCodeMaxPresent, qerr.Code)

	// Failed courses stop counting against the present limit.
	require.NoError(t, st.Courses.UpdateStatus(ctx, courseID, models.CourseStatusFailed, "boom"))
	require.NoError(t, svc.CheckQuota(ctx, user))
}

func TestCheckQuotaAdminBypass(t *testing.T) {
	svc, st, user := newQuotaFixture(t, config.QuotaConfig{MaxCourseCreations: 0, MaxPresentCourses: 0})
	ctx := context.Background()

	err := svc.CheckQuota(ctx, user)
	require.Error(t, err)

	admin := &models.User{
		ID: uuid.NewString(), Username: "a_" + uuid.NewString()[:8],
		Email: uuid.NewString() + "@example.com", PasswordHash: "x",
		IsActive: true, IsAdmin: true, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Users.Create(ctx, admin))
	require.NoError(t, svc.CheckQuota(ctx, admin))
}
