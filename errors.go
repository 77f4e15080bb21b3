package library

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidation            = "VALIDATION_ERROR"
	TextCodeUsernameInUse         = "USERNAME_ALREADY_IN_USE"
	TextCodeEmailInUse            = "EMAIL_ALREADY_IN_USE"
	TextCodeInvalidID             = "INVALID_ID"
	TextCodeInvalidToken          = "INVALID_TOKEN"
	TextCodeEmailAlreadyValidated = "EMAIL_ALREADY_VALIDATED"
	TextCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	TextCodeAccountBanned         = "ACCOUNT_BANNED"
	TextCodeUnauthorizedAccess    = "UNAUTHORIZED_ACCESS"
	TextCodeUnauthorizedAction    = "UNAUTHORIZED_ACTION"
	TextCodeInternal              = "INTERNAL_SERVER_ERROR"
)

// ErrUsernameInUse is returned when a username belongs to another account
var ErrUsernameInUse = goerrors.New("Username already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeUsernameInUse).
	WithCode(goerrors.CodeBadRequest)

// ErrEmailInUse is returned when an email belongs to another account
var ErrEmailInUse = goerrors.New("Email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailInUse).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidID covers malformed identifiers and identifiers with no record.
// Both map to 400 so lookups behave the same across handlers.
var ErrInvalidID = goerrors.New("Invalid id", goerrors.CategoryNotFound).
	WithTextCode(TextCodeInvalidID).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidConfirmationToken is returned by email confirmation
var ErrInvalidConfirmationToken = goerrors.New("Invalid token", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeBadRequest)

// ErrEmailAlreadyValidated is returned when confirming a confirmed account
var ErrEmailAlreadyValidated = goerrors.New("Email already validated", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailAlreadyValidated).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials is the single failure for unknown usernames and
// wrong passwords alike.
var ErrInvalidCredentials = goerrors.New("Invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountBanned is returned when a banned account tries to log in
var ErrAccountBanned = goerrors.New("Account banned", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountBanned).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingToken is returned when a protected route gets no x-auth-token
var ErrMissingToken = goerrors.New("Unauthorized access", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthorizedAccess).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidAuthToken is returned for unsigned, expired, foreign or
// wrong-kind access tokens.
var ErrInvalidAuthToken = goerrors.New("Invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnauthorizedAction is returned when the authorization table denies
var ErrUnauthorizedAction = goerrors.New("Unauthorized action", goerrors.CategoryAuthz).
	WithTextCode(TextCodeUnauthorizedAction).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password can not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a password does not match
var ErrMismatchedHashAndPassword = goerrors.New("password does not match hash", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrRecordNotFound is the store level miss, translated by callers
var ErrRecordNotFound = goerrors.New("record not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeInvalidID).
	WithCode(goerrors.CodeBadRequest)

// internalError wraps store, hashing and codec failures. The cause stays in
// the server log; clients only see the generic code.
func internalError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category != goerrors.CategoryInternal {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeInternal).
		WithCode(goerrors.CodeInternal)
}

// IsNotFound reports whether err is a store miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
