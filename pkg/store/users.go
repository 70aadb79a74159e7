package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nexora-ai/nexora/pkg/models"
)

// UserStore persists user accounts.
type UserStore struct {
	db *sql.DB
}

const userColumns = `id, username, email, password_hash, is_active, is_admin, login_streak, created_at, last_login`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.IsActive, &u.IsAdmin, &u.LoginStreak, &u.CreatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

// Create inserts a new user row.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_active, is_admin, login_streak, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsActive, u.IsAdmin, u.LoginStreak, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID returns the user with the given id, or sql.ErrNoRows.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByUsername returns the user with the given username, or sql.ErrNoRows.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or sql.ErrNoRows.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// List returns all users ordered by creation time.
func (s *UserStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RecordLogin updates the streak and last-login timestamp.
func (s *UserStore) RecordLogin(ctx context.Context, id string, streak int, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET login_streak = $1, last_login = $2 WHERE id = $3`, streak, at, id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// UpdateProfile rewrites the mutable account fields.
func (s *UserStore) UpdateProfile(ctx context.Context, id, username, email string, isActive, isAdmin bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = $1, email = $2, is_active = $3, is_admin = $4
		WHERE id = $5`,
		username, email, isActive, isAdmin, id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// SetActive toggles the account's active flag.
func (s *UserStore) SetActive(ctx context.Context, id string, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	return nil
}

// DeleteCascade removes the user and everything they own in one transaction.
// Course-scoped rows cascade via FKs once the courses go; rows that reference
// the user directly are removed explicitly first.
func (s *UserStore) DeleteCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []string{
		`DELETE FROM notes WHERE user_id = $1`,
		`DELETE FROM chat_messages WHERE user_id = $1`,
		`DELETE FROM images WHERE user_id = $1`,
		`DELETE FROM documents WHERE user_id = $1`,
		`DELETE FROM courses WHERE user_id = $1`,
		`DELETE FROM usage_events WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}
	return tx.Commit()
}
