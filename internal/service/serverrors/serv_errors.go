package serverrors

import "errors"

var (
	// business-rule failures, surfaced to the client with stable messages
	ErrCourseNotFound   = errors.New("course not found")
	ErrAlreadyPurchased = errors.New("course already purchased")
	ErrCardExpired      = errors.New("card has expired")

	// internal: the storage layer rejected a generated transaction id;
	// the orchestrator retries generation, callers never see this
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")
)
