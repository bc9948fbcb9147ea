package auth

import (
	"time"

	"tunedeck/internal/domain"
)

// LoginOutcome classifies the result of evaluating one login attempt.
type LoginOutcome int

const (
	// OutcomeAccepted means the password matched and the account is usable.
	OutcomeAccepted LoginOutcome = iota
	// OutcomeLocked means the account was already locked and the lock is
	// still active.
	OutcomeLocked
	// OutcomeNewlyLocked means this attempt crossed the failure threshold
	// and locked the account.
	OutcomeNewlyLocked
	// OutcomeBadCredentials means the password did not match but the
	// account remains unlocked.
	OutcomeBadCredentials
)

// Decision is the result of running the lockout state machine over a single
// attempt. Mutated reports whether the user record changed and must be
// persisted before the response is sent.
type Decision struct {
	Outcome              LoginOutcome
	RemainingAttempts    int
	RemainingLockSeconds int
	Mutated              bool
}

// LockoutPolicy holds the tunables of the account-lockout state machine.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// DefaultLockoutPolicy mirrors the production defaults: five failures lock
// the account for thirty minutes.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 5, LockDuration: 30 * time.Minute}
}

// Evaluate runs one login attempt through the lockout state machine,
// mutating user in place to its next state.
//
// Order matters: an expired lock is cleared before anything else, an active
// lock short-circuits before the password is verified (no hash work, and no
// signal about password correctness while locked), and only then is the
// password checked. verify is called at most once.
func (p LockoutPolicy) Evaluate(user *domain.User, verify func() bool, now time.Time) Decision {
	var d Decision

	// Lazy unlock: an elapsed lock is cleared regardless of how the rest
	// of this attempt turns out.
	if user.IsLocked && user.LockedUntil != nil && !now.Before(*user.LockedUntil) {
		user.IsLocked = false
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
		d.Mutated = true
	}

	if user.IsLocked && user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		d.Outcome = OutcomeLocked
		d.RemainingLockSeconds = remainingSeconds(*user.LockedUntil, now)
		return d
	}

	if verify() {
		user.FailedLoginAttempts = 0
		user.IsLocked = false
		user.LockedUntil = nil
		d.Outcome = OutcomeAccepted
		d.Mutated = true
		return d
	}

	user.FailedLoginAttempts++
	d.Mutated = true

	if user.FailedLoginAttempts >= p.MaxAttempts {
		until := now.Add(p.LockDuration)
		user.IsLocked = true
		user.LockedUntil = &until
		d.Outcome = OutcomeNewlyLocked
		d.RemainingLockSeconds = remainingSeconds(until, now)
		return d
	}

	d.Outcome = OutcomeBadCredentials
	if remaining := p.MaxAttempts - user.FailedLoginAttempts; remaining > 0 {
		d.RemainingAttempts = remaining
	}
	return d
}

// remainingSeconds rounds up, so a lock with any time left never reports zero.
func remainingSeconds(until, now time.Time) int {
	ms := until.Sub(now).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int((ms + 999) / 1000)
}
