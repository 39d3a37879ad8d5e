package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyInList = errors.New("already in list")
	ErrNotInList     = errors.New("no such object in list")
	ErrSelfAction    = errors.New("can't interact with yourself")
)

// ValidationError reports malformed or out-of-range input, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// IsValidation reports whether err is a field validation error.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// isUniqueViolation recognizes unique-constraint violations from the drivers
// we run against: lib/pq (postgres), mattn/go-sqlite3 (tests), and gorm's own
// translated sentinel. Under concurrent duplicate inserts the constraint, not
// the prior existence check, is the final arbiter.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFoundOr maps gorm's record-not-found to the service sentinel.
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
