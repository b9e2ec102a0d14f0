package model

import "errors"

// Common errors used across the application
var (
	// Authentication errors surfaced by the session store
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrNetwork            = errors.New("identity provider unreachable")
	ErrTooManyAttempts    = errors.New("too many authentication attempts")
	ErrPasswordTooLong    = errors.New("password too long")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")

	// Viewer errors
	ErrViewerNotFound = errors.New("viewer not found")
	ErrViewerClosed   = errors.New("viewer is closed")

	// Catalog errors
	ErrMediaNotFound = errors.New("media not found")
)
