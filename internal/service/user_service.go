package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"tunedeck/internal/auth"
	"tunedeck/internal/domain"
	"tunedeck/internal/repository"
)

var (
	// ErrInvalidCredentials indicates an unknown identity or a bad password.
	// The message is deliberately uniform so callers cannot tell the two
	// apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailOrUsernameTaken is returned when registration collides with an
	// existing account.
	ErrEmailOrUsernameTaken = errors.New("email or username already in use")
	// ErrValidation wraps registration input problems.
	ErrValidation = errors.New("invalid input")
)

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Username  string
}

// LoginResult reports the outcome of a login attempt. User is set only when
// the outcome is OutcomeAccepted.
type LoginResult struct {
	Outcome              auth.LoginOutcome
	User                 *domain.User
	RemainingAttempts    int
	RemainingLockSeconds int
}

// UserService describes account lifecycle operations.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	policy auth.LockoutPolicy
	clock  auth.Clock

	// loginMu serializes the read-decide-write sequence per identity so
	// concurrent attempts cannot under- or over-count failures. Entries
	// are dropped once uncontended; emails are attacker-chosen and must
	// not accumulate.
	loginMu sync.Mutex
	locks   map[string]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

func NewUserService(users repository.UserRepository, policy auth.LockoutPolicy, clock auth.Clock) UserService {
	if clock == nil {
		clock = auth.SystemClock()
	}
	return &userService{
		users:  users,
		policy: policy,
		clock:  clock,
		locks:  make(map[string]*identityLock),
	}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(input.FirstName) < 2 || len(input.LastName) < 2 {
		return nil, fmt.Errorf("%w: first and last name must be at least 2 characters", ErrValidation)
	}
	if len(input.Username) < 3 {
		return nil, fmt.Errorf("%w: username must be at least 3 characters", ErrValidation)
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailOrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Login evaluates one attempt through the lockout state machine and persists
// the resulting record state before returning. Unknown identities fail with
// ErrInvalidCredentials and mutate nothing.
func (s *userService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	unlock := s.lockIdentity(email)
	defer unlock()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	decision := s.policy.Evaluate(user, func() bool {
		return auth.VerifyPassword(user.PasswordHash, password)
	}, s.clock.Now())

	if decision.Mutated {
		if err := s.users.Update(ctx, user); err != nil {
			return LoginResult{}, fmt.Errorf("persist lockout state: %w", err)
		}
	}

	result := LoginResult{
		Outcome:              decision.Outcome,
		RemainingAttempts:    decision.RemainingAttempts,
		RemainingLockSeconds: decision.RemainingLockSeconds,
	}
	if decision.Outcome == auth.OutcomeAccepted {
		result.User = user
	}
	return result, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) lockIdentity(email string) func() {
	s.loginMu.Lock()
	l, ok := s.locks[email]
	if !ok {
		l = &identityLock{}
		s.locks[email] = l
	}
	l.refs++
	s.loginMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.loginMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, email)
		}
		s.loginMu.Unlock()
	}
}
