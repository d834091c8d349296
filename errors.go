package featurekit

import (
	"errors"
	"fmt"
)

// Sentinel errors for FeatureKit operations.
var (
	// ErrAccessDenied is returned when a feature check fails for a user.
	ErrAccessDenied = errors.New("featurekit: access denied")

	// ErrForbidden is returned when an operation restricted to a specific
	// role is attempted by an insufficiently privileged caller.
	ErrForbidden = errors.New("featurekit: forbidden")

	// ErrNotFound is returned when the target row does not exist.
	ErrNotFound = errors.New("featurekit: not found")

	// ErrUnknownEntity is returned when an entity type is not registered.
	ErrUnknownEntity = errors.New("featurekit: unknown entity type")

	// ErrUnknownFeature is returned when a feature key is not registered.
	ErrUnknownFeature = errors.New("featurekit: unknown feature key")

	// ErrStorage is returned when a database operation fails. The original
	// error is preserved for logging via Unwrap/Cause.
	ErrStorage = errors.New("featurekit: storage error")

	// ErrNoActorID is returned when actor ID is not found in context for audit.
	ErrNoActorID = errors.New("featurekit: no actor ID in context")
)

// DenyReason distinguishes why a feature check failed, so the caller can
// render the right message ("disabled by policy" vs "not granted to you").
type DenyReason string

const (
	// ReasonPolicyDisabled: the global policy disables the key, or the key
	// is not in the policy at all.
	ReasonPolicyDisabled DenyReason = "policy_disabled"

	// ReasonNotDelegated: the policy allows the key but the user's grant
	// layer does not.
	ReasonNotDelegated DenyReason = "not_delegated"
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err        error      // Underlying sentinel error
	Message    string     // Additional context
	FeatureKey string     // Feature key involved (if applicable)
	Role       Role       // Role of the user involved (if applicable)
	UserID     string     // User involved (if applicable)
	EntityType string     // Entity type involved (if applicable)
	EntityID   string     // Entity id involved (if applicable)
	Reason     DenyReason // Sub-reason for access denials
	Cause      error      // Underlying storage error (for ErrStorage)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	if errors.Is(e.Err, target) {
		return true
	}
	return e.Cause != nil && errors.Is(e.Cause, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// NewStorageError wraps a database failure, preserving the cause.
func NewStorageError(cause error, message string) *Error {
	return &Error{
		Err:     ErrStorage,
		Message: message,
		Cause:   cause,
	}
}

// WithFeature adds the feature key to the error.
func (e *Error) WithFeature(key string) *Error {
	e.FeatureKey = key
	return e
}

// WithRole adds the role to the error.
func (e *Error) WithRole(role Role) *Error {
	e.Role = role
	return e
}

// WithUser adds the user id to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithEntity adds entity information to the error.
func (e *Error) WithEntity(entityType, entityID string) *Error {
	e.EntityType = entityType
	e.EntityID = entityID
	return e
}

// WithReason adds the denial sub-reason to the error.
func (e *Error) WithReason(reason DenyReason) *Error {
	e.Reason = reason
	return e
}

// IsAccessDenied checks if an error is a feature-check denial.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsForbidden checks if an error is a role restriction failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsNotFound checks if an error reports a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnknownEntity checks if an error is due to an unregistered entity type.
func IsUnknownEntity(err error) bool {
	return errors.Is(err, ErrUnknownEntity)
}

// IsStorage checks if an error wraps a database failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// DenialReason extracts the sub-reason from an access-denied error.
// Returns "" when the error carries none.
func DenialReason(err error) DenyReason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
