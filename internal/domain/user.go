package domain

import "time"

// User represents a registered account, including the lockout state that
// gates login attempts.
type User struct {
	ID                  int64
	FirstName           string
	LastName            string
	Email               string
	Username            string
	PasswordHash        string
	FailedLoginAttempts int
	IsLocked            bool
	LockedUntil         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
