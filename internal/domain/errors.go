package domain

import "errors"

var (
	// ErrConnectionFailed marks a failure to obtain or open a store connection.
	ErrConnectionFailed = errors.New("storage connection failed")
	// ErrWriteFailed marks a failed bulk insert; the surrounding transaction is
	// rolled back and nothing from the batch is persisted.
	ErrWriteFailed = errors.New("bulk write failed")
	// ErrConstraintViolation refines ErrWriteFailed when the store rejected the
	// write with an integrity constraint error.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrQueryFailed marks a failed read; no partial result set is returned.
	ErrQueryFailed = errors.New("query failed")
)
