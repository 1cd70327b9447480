package services

import "errors"

// Error kinds surfaced by the services. Handlers map each to a stable code.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrSelfReference    = errors.New("cannot target yourself")
	ErrDuplicateRequest = errors.New("a pending friend request already exists")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyAccepted  = errors.New("friend request already accepted")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
)
