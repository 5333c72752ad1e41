package sdk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for common SDK error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrNotFound indicates a referenced type, property, document, or entity
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a duplicate registration: a type name,
	// property name, document URL, or relation whose derived id is already
	// recorded. Because ids are content-derived, duplicates are structural
	// rather than a matter of lookup timing.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument indicates malformed input: an empty document URL,
	// an out-of-range number or time value, an unsupported property type tag,
	// or an edge that violates the registered path table.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthorized indicates the caller lacks the required role for the
	// operation: registry administrator, instance owner, or relation
	// counter-party.
	ErrUnauthorized = errors.New("unauthorized access")

	// ErrInvalidTransition indicates a relation status change that the
	// lifecycle state machine does not permit for the requesting actor.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Error kinds categorize errors by their type.
const (
	// KindNotFound represents errors where a resource was not found.
	KindNotFound = "not_found"

	// KindAlreadyExists represents duplicate-registration errors.
	KindAlreadyExists = "already_exists"

	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindPermission represents errors related to missing roles or identities.
	KindPermission = "permission"

	// KindTransition represents relation lifecycle violations.
	KindTransition = "transition"

	// KindStorage represents errors from a persistence backend.
	KindStorage = "storage"

	// KindInternal represents internal SDK errors.
	KindInternal = "internal"
)

// Error is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of
// error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &sdk.Error{
//		Op:   "Registry.RegisterNodeType",
//		Kind: sdk.KindAlreadyExists,
//		Err:  sdk.ErrAlreadyExists,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "Registry.RegisterProperty",
	// "Node.AddEdge").
	Op string

	// Kind categorizes the error (e.g., KindNotFound, KindPermission).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include derived ids, actor identities, or other debugging
	// information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sdk: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("sdk: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("sdk: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on
// the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	// Check if target is an Error with matching Kind
	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	// Delegate to underlying error
	return errors.Is(e.Err, target)
}

// WithContext returns a new Error with the provided context added.
// This is useful for adding debugging information to errors.
//
// Example:
//
//	err = err.WithContext(map[string]any{
//		"relation_id": relID.String(),
//		"actor":       string(actor),
//	})
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewNotFoundError creates a new Error with KindNotFound.
func NewNotFoundError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindNotFound,
		Err:  err,
	}
}

// NewAlreadyExistsError creates a new Error with KindAlreadyExists.
func NewAlreadyExistsError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindAlreadyExists,
		Err:  err,
	}
}

// NewValidationError creates a new Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindValidation,
		Err:  err,
	}
}

// NewPermissionError creates a new Error with KindPermission.
func NewPermissionError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindPermission,
		Err:  err,
	}
}

// NewTransitionError creates a new Error with KindTransition.
func NewTransitionError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindTransition,
		Err:  err,
	}
}

// NewStorageError creates a new Error with KindStorage.
func NewStorageError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindStorage,
		Err:  err,
	}
}

// NewInternalError creates a new Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindInternal,
		Err:  err,
	}
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. This is intended for use in defer statements to ensure
// cleanup errors are not silently ignored.
//
// The name parameter should describe the resource being closed (e.g.,
// "redis store", "directory client"). If logger is nil, slog.Default() is
// used.
//
// Example usage:
//
//	defer sdk.CloseWithLog(store, logger, "redis store")
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
