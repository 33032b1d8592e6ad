package phonepe

import "errors"

var (
	// ErrAuth means the gateway rejected our credentials or bearer token.
	ErrAuth = errors.New("phonepe authentication failed")
	// ErrNotFound means the order is not (yet) visible to the gateway.
	ErrNotFound = errors.New("phonepe order not found")
	// ErrBadRequest means the gateway rejected the payment parameters.
	ErrBadRequest = errors.New("invalid payment parameters")
)
