package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"gorm.io/gorm"
)

// SQLSTATE values that signal a concurrent modification rather than a bad write.
var writeConflictCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// IsUniqueViolation reports whether the error is a unique constraint violation.
// When constraintName is provided the constraint must match as well.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if code, ok := pkgerrors.PostgresCode(err); ok && code != "23505" {
		return false
	}
	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsWriteConflict reports whether err is a transient conflict that is expected
// to succeed when the unit of work is replayed.
func IsWriteConflict(err error) bool {
	if err == nil {
		return false
	}
	if pkgerrors.Is(err, pkgerrors.CodeWriteConflict) {
		return true
	}
	if code, ok := pkgerrors.PostgresCode(err); ok {
		_, conflict := writeConflictCodes[code]
		return conflict
	}
	// sqlite reports lock contention as plain text
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// IsNotFound reports whether err is gorm's missing-record signal.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) == nil && IsWriteConflict(err) {
		return pkgerrors.Wrap(pkgerrors.CodeWriteConflict, err, message)
	}
	return err
}

// WrapStorage leaves typed errors alone and classifies raw storage failures:
// duplicates become CodeConflict, contention CodeWriteConflict, anything else
// CodeDependency.
func WrapStorage(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	case IsWriteConflict(err):
		return pkgerrors.Wrap(pkgerrors.CodeWriteConflict, err, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
	}
}
