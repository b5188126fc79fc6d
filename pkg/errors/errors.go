package drift_errors

import (
	"errors"
)

// Common errors
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Matching core errors
var (
	ErrNoActiveMatch   = errors.New("no active match")
	ErrPartnerOffline  = errors.New("partner is offline")
	ErrRequestPending  = errors.New("a friend request already exists for this pair")
	ErrSelfPairing     = errors.New("cannot pair a connection with itself")
	ErrAlreadyPaired   = errors.New("connection is already paired")
	ErrProfileMissing  = errors.New("profile not found")
	ErrStaleConnection = errors.New("connection is no longer registered")
)
