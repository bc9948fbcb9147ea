package repository

import (
	"context"
	"errors"

	"tunedeck/internal/domain"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a create would violate a uniqueness
// constraint.
var ErrDuplicate = errors.New("already exists")

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// Update persists the mutable fields of the record, including the
	// lockout state, in a single write.
	Update(ctx context.Context, user *domain.User) error
}
