// Package apperrors defines the service-level failure taxonomy. Services
// wrap lower-layer errors with these sentinels so transport middleware can
// pick status codes with errors.Is.
package apperrors

import "errors"

var (
	// ErrNotFound marks a missing user, session or resource.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized marks bad credentials, inactive accounts and invalid
	// tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrQuotaExceeded marks an exhausted upstream completion quota.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrContentRejected marks a prompt refused by an upstream safety filter.
	ErrContentRejected = errors.New("content rejected")

	// ErrTransientUnavailable marks an upstream that should recover shortly,
	// such as a model still loading.
	ErrTransientUnavailable = errors.New("temporarily unavailable")

	// ErrUpstreamFailure marks any other terminal upstream error.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrPersistenceFailure marks a datastore write or read that failed.
	ErrPersistenceFailure = errors.New("persistence failure")
)
