package errorvalues

import "errors"

var (
	ErrUserExists       = errors.New("such user already exists")
	ErrEmailExists      = errors.New("email is already registered")
	ErrUserNotFound     = errors.New("user doesn't exists")
	ErrOwnerNotFound    = errors.New("owner of the habit doesn't exist")
	ErrWrongCredentials = errors.New("wrong name or password")
	ErrInvalidToken     = errors.New("invalid token")

	ErrValidation = errors.New("validation error")

	ErrHabitNotFound    = errors.New("habit doesn't exist")
	ErrWrongOwner       = errors.New("habit belongs to another user")
	ErrAlreadyCompleted = errors.New("habit already completed for today")

	ErrNegativeDelta   = errors.New("stats counters can only be increased")
	ErrUnknownStatsKey = errors.New("unknown stats counter")

	// Returned by the generative-text client when it is not configured or unreachable.
	ErrUnavailable = errors.New("generative text service unavailable")

	ErrLockNotAcquired = errors.New("lock is held by another worker")
)
