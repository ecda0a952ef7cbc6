package usecase

import "errors"

var (
	// ErrDuplicateEmail rejects registration with an already used email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so responses do not reveal which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked rejects login while the failure lockout is active.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrMissingToken means no bearer token was presented.
	ErrMissingToken = errors.New("authentication token required")

	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired means the token verified but its expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrUserNotFound means the referenced identity does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrForbidden means the caller lacks a required role.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrUnauthenticated means no verified caller is attached to the request.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrVerificationRequired gates operations on unverified accounts.
	ErrVerificationRequired = errors.New("account verification required")

	// ErrAccountInactive gates operations on deactivated accounts.
	ErrAccountInactive = errors.New("account is deactivated")

	// ErrValidation rejects syntactically invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable wraps infrastructure failures in the auth path.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
