package engine

import (
	"errors"
	"fmt"

	"github.com/gatewaykit/portage/internal/bundle"
)

// ImportError represents a fatal condition that aborts an entire import
// immediately. Per-mapping business conditions are never ImportErrors;
// they are reported through Mapping.ErrorType.
type ImportError struct {
	// Code identifies the error category.
	Code ImportErrorCode

	// Message is a human-readable description.
	Message string

	// SrcID identifies the mapping being resolved when the import
	// aborted, if any.
	SrcID string

	// EntityType is the affected mapping's entity type, if any.
	EntityType bundle.EntityType

	// Err is the underlying cause, if any.
	Err error
}

// ImportErrorCode categorizes fatal import errors.
type ImportErrorCode string

const (
	// ErrCodeStoreFailure indicates the entity store itself failed.
	ErrCodeStoreFailure ImportErrorCode = "STORE_FAILURE"

	// ErrCodeMalformedBundle indicates a mapping that cannot be resolved
	// at all: no reference item where content is required, no valid
	// lookup key, or a structurally invalid bundle document.
	ErrCodeMalformedBundle ImportErrorCode = "MALFORMED_BUNDLE"

	// ErrCodeStaleReference indicates a dependency-order violation: an
	// entity's content still embeds the source id of a mapping that
	// appears later in the list, so the reference cannot be rewritten.
	ErrCodeStaleReference ImportErrorCode = "STALE_REFERENCE"

	// ErrCodeAuditFailure indicates the audit emitter failed after a
	// successful commit. The import IS committed when this is reported.
	ErrCodeAuditFailure ImportErrorCode = "AUDIT_FAILURE"
)

// Error implements the error interface.
func (e *ImportError) Error() string {
	if e.SrcID != "" {
		return fmt.Sprintf("%s: %s (type=%s, srcId=%s)", e.Code, e.Message, e.EntityType, e.SrcID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ImportError) Unwrap() error { return e.Err }

// IsStoreFailure returns true if the error is a store failure.
// Uses errors.As to handle wrapped errors.
func IsStoreFailure(err error) bool {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeStoreFailure
	}
	return false
}

// IsMalformedBundle returns true if the error reports a malformed bundle.
func IsMalformedBundle(err error) bool {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeMalformedBundle
	}
	return false
}

// IsStaleReference returns true if the error reports a dependency-order
// violation.
func IsStaleReference(err error) bool {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeStaleReference
	}
	return false
}

// IsAuditFailure returns true if the error reports a post-commit audit
// failure.
func IsAuditFailure(err error) bool {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeAuditFailure
	}
	return false
}

// newStoreFailure wraps a store error for the mapping being resolved.
func newStoreFailure(m *bundle.Mapping, err error) *ImportError {
	return &ImportError{
		Code:       ErrCodeStoreFailure,
		Message:    "entity store operation failed",
		SrcID:      m.SrcID,
		EntityType: m.Type,
		Err:        err,
	}
}

// newMalformedBundle reports an unresolvable mapping.
func newMalformedBundle(m *bundle.Mapping, message string) *ImportError {
	return &ImportError{
		Code:       ErrCodeMalformedBundle,
		Message:    message,
		SrcID:      m.SrcID,
		EntityType: m.Type,
	}
}

// newStaleReference reports a dependency-order violation.
func newStaleReference(m *bundle.Mapping, staleID string) *ImportError {
	return &ImportError{
		Code:       ErrCodeStaleReference,
		Message:    fmt.Sprintf("content references %s, which is mapped later in the bundle", staleID),
		SrcID:      m.SrcID,
		EntityType: m.Type,
	}
}
