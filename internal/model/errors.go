package model

import "errors"

var (
	// User related errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")

	// Credential related errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInactiveAccount    = errors.New("inactive account")

	// Token related errors
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")

	// Access related errors
	ErrForbidden        = errors.New("forbidden")
	ErrCannotDeleteSelf = errors.New("cannot delete own account")

	// Store related errors. Wrapped around the underlying failure so callers
	// can tell "your request was invalid" apart from "the store was down".
	ErrStoreUnavailable = errors.New("store unavailable")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
