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

func newPolicyService(policy config.PasswordPolicy) *UserService {
	return NewUserService(nil, policy, slog.Default())
}

func TestValidatePasswordMinLength(t *testing.T) {
	svc := newPolicyService(config.PasswordPolicy{MinLength: 8})

	assert.NoError(t, svc.ValidatePassword("longenough"))

	err := svc.ValidatePassword("short")
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
	assert.Contains(t, verr.Message, "8")
}

func TestValidatePasswordCharacterClasses(t *testing.T) {
	svc := newPolicyService(config.PasswordPolicy{
		MinLength:        3,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
		RequireSpecial:   true,
	})

	assert.NoError(t, svc.ValidatePassword("Abc123!"))

	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"missing uppercase", "abc123!", "uppercase"},
		{"missing lowercase", "ABC123!", "lowercase"},
		{"missing digit", "Abcdef!", "digit"},
		{"missing special", "Abc1234", "special"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidatePassword(tt.password)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidatePasswordRelaxedPolicy(t *testing.T) {
	svc := newPolicyService(config.PasswordPolicy{MinLength: 3})
	assert.NoError(t, svc.ValidatePassword("abc"))
}

func newUserFixture(t *testing.T) (*UserService, *models.User, *models.User) {
	t.Helper()
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	svc := NewUserService(st, config.PasswordPolicy{MinLength: 8}, slog.Default())

	newUser := func(prefix string, admin bool) *models.User {
		u := &models.User{
			ID: uuid.NewString(), Username: prefix + "_" + uuid.NewString()[:8],
			Email: uuid.NewString() + "@example.com", PasswordHash: "x",
			IsActive: true, IsAdmin: admin, CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, st.Users.Create(context.Background(), u))
		return u
	}
	return svc, newUser("u", false), newUser("a", true)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestUpdateOwnProfile(t *testing.T) {
	svc, user, _ := newUserFixture(t)
	ctx := context.Background()

	updated, err := svc.Update(ctx, user, user.ID, UserUpdate{
		Username: strPtr("renamed"),
		Email:    strPtr("renamed@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Username)

	stored, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Username)
	assert.Equal(t, "renamed@example.com", stored.Email)
}

func TestUpdateAccessRules(t *testing.T) {
	svc, user, admin := newUserFixture(t)
	ctx := context.Background()

	// Unknown target is a 404 regardless of the caller.
	_, err := svc.Update(ctx, admin, uuid.NewString(), UserUpdate{Username: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	// Only the user themselves or an admin may update.
	_, err = svc.Update(ctx, user, admin.ID, UserUpdate{Username: strPtr("x")})
	assert.ErrorIs(t, err, ErrForbidden)

	// The admin flags are admin-only.
	_, err = svc.Update(ctx, user, user.ID, UserUpdate{IsAdmin: boolPtr(true)})
	assert.ErrorIs(t, err, ErrForbidden)

	// Self-service password changes go through ChangePassword.
	_, err = svc.Update(ctx, user, user.ID, UserUpdate{Password: strPtr("Secret123!")})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	// Admins may deactivate accounts.
	updated, err := svc.Update(ctx, admin, user.ID, UserUpdate{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}

func TestUpdateRejectsTakenUsername(t *testing.T) {
	svc, user, admin := newUserFixture(t)

	_, err := svc.Update(context.Background(), user, user.ID, UserUpdate{Username: strPtr(admin.Username)})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}
