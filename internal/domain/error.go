package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Job lifecycle errors
	ErrNotCancellable    = errors.New("job is not cancellable")
	ErrJobNotCompleted   = errors.New("job is not completed")
	ErrEmptyResult       = errors.New("job has no result")
	ErrProfileIncomplete = errors.New("user profile is incomplete")
	ErrRateLimited       = errors.New("too many requests")
	ErrAwaitTimeout      = errors.New("timed out waiting for job")

	// AI service failure taxonomy
	ErrAIInvalidCredentials = errors.New("ai service credentials rejected")
	ErrAIRateLimited        = errors.New("ai service rate limited")
	ErrAIInputTooLong       = errors.New("ai input exceeds model context")
	ErrAIUnavailable        = errors.New("ai service unavailable")
	ErrAIEmptyResponse      = errors.New("ai service returned no text")

	// Infra errors
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
