package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexora-ai/nexora/pkg/config"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
)

// UserWithStats decorates a user with ledger-derived statistics.
type UserWithStats struct {
	*models.User
	TotalLearnTimeMinutes int `json:"total_learn_time_minutes"`
}

// UserService implements account lifecycle, login and password management.
type UserService struct {
	store  *store.Store
	policy config.PasswordPolicy
	logger *slog.Logger
}

// NewUserService creates the user service.
func NewUserService(st *store.Store, policy config.PasswordPolicy, logger *slog.Logger) *UserService {
	return &UserService{store: st, policy: policy, logger: logger.With("component", "user_service")}
}

// Signup creates a new account after validating the password policy and
// username/email uniqueness.
func (s *UserService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" {
		return nil, NewValidationError("username", "must not be empty")
	}
	if email == "" {
		return nil, NewValidationError("email", "must not be empty")
	}
	if err := s.ValidatePassword(password); err != nil {
		return nil, err
	}
	if _, err := s.store.Users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username taken: %w", ErrAlreadyExists)
	}
	if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email taken: %w", ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", "user_id", user.ID, "username", username)
	return user, nil
}

// Login authenticates by username (or email) and password, updates the
// login streak and logs the event.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.Users.GetByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		user, err = s.store.Users.GetByEmail(ctx, username)
	}
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	streak := models.NextLoginStreak(user.LoginStreak, user.LastLogin, now)
	if err := s.store.Users.RecordLogin(ctx, user.ID, streak, now); err != nil {
		return nil, err
	}
	user.LoginStreak = streak
	user.LastLogin = &now

	s.logUsage(ctx, user.ID, models.ActionLogin)
	return user, nil
}

// LoginOAuth returns the account bound to the OAuth identity's email,
// creating it on first login with a unique generated username and a random
// opaque password hash that can never match a real password.
func (s *UserService) LoginOAuth(ctx context.Context, email, preferredUsername string) (*models.User, error) {
	if email == "" {
		return nil, NewValidationError("email", "provider returned no email")
	}
	user, err := s.store.Users.GetByEmail(ctx, email)
	if err == nil {
		if !user.IsActive {
			return nil, ErrForbidden
		}
		now := time.Now()
		streak := models.NextLoginStreak(user.LoginStreak, user.LastLogin, now)
		if err := s.store.Users.RecordLogin(ctx, user.ID, streak, now); err != nil {
			return nil, err
		}
		user.LoginStreak = streak
		user.LastLogin = &now
		s.logUsage(ctx, user.ID, models.ActionLogin)
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	username, err := s.uniqueUsername(ctx, preferredUsername)
	if err != nil {
		return nil, err
	}
	user = &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: uuid.NewString(), // opaque, not a bcrypt hash
		IsActive:     true,
		LoginStreak:  1,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("oauth user created", "user_id", user.ID, "username", username)
	s.logUsage(ctx, user.ID, models.ActionLogin)
	return user, nil
}

func (s *UserService) uniqueUsername(ctx context.Context, preferred string) (string, error) {
	if preferred == "" {
		preferred = "user"
	}
	candidate := preferred
	for i := 0; i < 10; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s_%s", preferred, uuid.NewString()[:8])
		}
		_, err := s.store.Users.GetByUsername(ctx, candidate)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to generate a unique username for %q", preferred)
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// List returns all users with their total learn time.
func (s *UserService) List(ctx context.Context) ([]*UserWithStats, error) {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*UserWithStats, 0, len(users))
	for _, u := range users {
		minutes, err := s.store.Usage.TotalLearnTimeMinutes(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &UserWithStats{User: u, TotalLearnTimeMinutes: minutes})
	}
	return out, nil
}

// UserUpdate carries the optional profile fields of an update request. Nil
// fields stay unchanged.
type UserUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
	IsAdmin  *bool   `json:"is_admin"`
}

// Update applies a profile update. Users may edit their own username and
// email; the active and admin flags are admin-only, and so is setting a
// password here (self-service goes through ChangePassword, which verifies
// the old one).
func (s *UserService) Update(ctx context.Context, caller *models.User, userID string, upd UserUpdate) (*models.User, error) {
	target, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if caller.ID != userID && !caller.IsAdmin {
		return nil, ErrForbidden
	}
	if !caller.IsAdmin {
		if upd.IsActive != nil || upd.IsAdmin != nil {
			return nil, ErrForbidden
		}
		if upd.Password != nil {
			return nil, NewValidationError("password", "use the change_password endpoint")
		}
	}

	if upd.Username != nil && *upd.Username != target.Username {
		if *upd.Username == "" {
			return nil, NewValidationError("username", "must not be empty")
		}
		if _, err := s.store.Users.GetByUsername(ctx, *upd.Username); err == nil {
			return nil, fmt.Errorf("username taken: %w", ErrAlreadyExists)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		target.Username = *upd.Username
	}
	if upd.Email != nil && *upd.Email != target.Email {
		if *upd.Email == "" {
			return nil, NewValidationError("email", "must not be empty")
		}
		if _, err := s.store.Users.GetByEmail(ctx, *upd.Email); err == nil {
			return nil, fmt.Errorf("email taken: %w", ErrAlreadyExists)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		target.Email = *upd.Email
	}
	if upd.IsActive != nil {
		target.IsActive = *upd.IsActive
	}
	if upd.IsAdmin != nil {
		target.IsAdmin = *upd.IsAdmin
	}

	if err := s.store.Users.UpdateProfile(ctx, target.ID, target.Username, target.Email, target.IsActive, target.IsAdmin); err != nil {
		return nil, err
	}
	if upd.Password != nil {
		if err := s.ValidatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.store.Users.UpdatePassword(ctx, target.ID, string(hash)); err != nil {
			return nil, err
		}
	}
	s.logger.Info("user updated", "user_id", target.ID, "by", caller.ID)
	return target, nil
}

// ChangePassword verifies the old password and stores the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrUnauthorized
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.store.Users.UpdatePassword(ctx, userID, string(hash))
}

// Delete removes the account and everything it owns.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("deleting user and owned data", "user_id", userID)
	return s.store.Users.DeleteCascade(ctx, userID)
}

// LogAction appends an auth-related ledger event (logout, refresh, ...).
func (s *UserService) LogAction(ctx context.Context, userID, action string) {
	s.logUsage(ctx, userID, action)
}

func (s *UserService) logUsage(ctx context.Context, userID, action string) {
	if err := s.store.Usage.Log(ctx, &models.UsageEvent{UserID: userID, Action: action}); err != nil {
		s.logger.Warn("failed to log usage event", "action", action, "error", err)
	}
}

// ValidatePassword enforces the configured password policy.
func (s *UserService) ValidatePassword(password string) error {
	if len(password) < s.policy.MinLength {
		return NewValidationError("password", fmt.Sprintf("must be at least %d characters", s.policy.MinLength))
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	switch {
	case s.policy.RequireUppercase && !hasUpper:
		return NewValidationError("password", "must contain an uppercase letter")
	case s.policy.RequireLowercase && !hasLower:
		return NewValidationError("password", "must contain a lowercase letter")
	case s.policy.RequireDigit && !hasDigit:
		return NewValidationError("password", "must contain a digit")
	case s.policy.RequireSpecial && !hasSpecial:
		return NewValidationError("password", "must contain a special character")
	}
	return nil
}
