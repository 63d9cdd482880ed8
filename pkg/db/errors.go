package db

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
)

// IsUniqueViolation reports whether the provided error references a unique
// violation constraint. When constraintName is provided, the helper looks for
// the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsSerializationFailure reports whether the error indicates a lost lock race
// or serialization conflict that a caller may retry.
func IsSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// 40001 serialization_failure, 40P01 deadlock_detected, 55P03 lock_not_available
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40P01") ||
		strings.Contains(msg, "55P03") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "database is locked")
}

// ClassifyError maps a raw store error to a coded error. Context expiry is
// reported as a dependency failure so callers can treat it as retriable.
func ClassifyError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+": store unavailable")
	}
	if IsSerializationFailure(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, err, op+": concurrent modification")
	}
	return err
}
