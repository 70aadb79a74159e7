package models

import "time"

// User is an account. PasswordHash is a bcrypt hash (or a random opaque
// value for OAuth-created accounts).
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	IsAdmin      bool       `json:"is_admin"`
	LoginStreak  int        `json:"login_streak"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// NextLoginStreak computes the streak value for a login at now given the
// previous last-login time: consecutive calendar days increment the streak,
// a same-day login keeps it, anything else resets it to 1.
func NextLoginStreak(current int, lastLogin *time.Time, now time.Time) int {
	if lastLogin == nil {
		return 1
	}
	prevDay := lastLogin.UTC().Truncate(24 * time.Hour)
	today := now.UTC().Truncate(24 * time.Hour)
	switch prevDay {
	case today:
		return current
	case today.Add(-24 * time.Hour):
		return current + 1
	default:
		return 1
	}
}
