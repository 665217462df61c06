package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrBookingDateTaken  = errors.New("freelancer already booked for this date")

	// Payment errors
	ErrGatewayUnavailable = errors.New("payment gateway unavailable or misconfigured")
	ErrUpstream           = errors.New("upstream gateway request failed")
	ErrChecksumMismatch   = errors.New("checksum verification failed")
	ErrAlreadyProcessed   = errors.New("transaction already in a terminal state")

	// Infra errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrLockHeld           = errors.New("lock is held by another worker")
)
