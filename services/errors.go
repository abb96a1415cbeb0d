package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Error taxonomy shared by every service. Handlers map these to HTTP status
// codes with errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrStoreFailure     = errors.New("store failure")
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func permissionDenied(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}

// storeFailure wraps a backing-store error. Errors that already carry a
// taxonomy sentinel are returned unchanged.
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrInvalidInput, ErrPermissionDenied, ErrNotFound, ErrStoreFailure} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}

func invalidPeriod(period string) error {
	return invalidInput("period %q must be in YYYY-MM format", period)
}

// isRetryableWrite reports whether a failed write unit lost a race on the
// (module_id, period) key and can be replayed from the start.
func isRetryableWrite(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"duplicate entry",
		"duplicate key value",
		"unique constraint failed",
		"deadlock",
		"database is locked",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
