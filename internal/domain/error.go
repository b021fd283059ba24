package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound              = errors.New("entity not found")
	ErrAlreadyExists         = errors.New("entity already exists")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrOperationFailed       = errors.New("operation failed")
	ErrReadDatabaseRow       = errors.New("failed to read database row")
	ErrInvalidExecContext    = errors.New("invalid execution context for query")
	ErrSessionIncomplete     = errors.New("checkout session is missing required fields")
	ErrPriceMismatch         = errors.New("price does not belong to the selected product")
	ErrRecordAlreadyResolved = errors.New("verification record already resolved")
	ErrOverrideNotAuthorized = errors.New("manual override not authorized")
	ErrBulkApproveRunning    = errors.New("bulk approval already in progress")
	ErrProviderUnavailable   = errors.New("payment provider unavailable")
)
