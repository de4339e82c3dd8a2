package apperrors

import (
	"errors"
)

var (
	// Token exchange outcomes
	ErrTokenRejected        = errors.New("token rejected by authority")
	ErrTokenAlreadyConsumed = errors.New("token already consumed")
	ErrMalformedInput       = errors.New("malformed input")

	// No definitive answer from the platform (network or 5xx)
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	ErrInvoiceNotFound = errors.New("invoice not found")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)
