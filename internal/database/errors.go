package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors matched by errors.Is against a *StorageError.
var (
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
	ErrLocked          = errors.New("database is locked")
	ErrUnavailable     = errors.New("database unavailable")
)

// Code identifies the class of a storage failure.
type Code string

// Storage failure classes.
const (
	CodeUniqueViolation Code = "unique_violation"
	CodeCheckViolation  Code = "check_violation"
	CodeLocked          Code = "locked"
	CodeUnavailable     Code = "unavailable"
	CodeUnknown         Code = "unknown"
)

// StorageError wraps a driver failure together with its classified code.
type StorageError struct {
	Op   string
	Code Code
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed (%s): %v", e.Op, e.Code, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets callers match on the sentinel that corresponds to the error code.
func (e *StorageError) Is(target error) bool {
	switch e.Code {
	case CodeUniqueViolation:
		return target == ErrUniqueViolation
	case CodeCheckViolation:
		return target == ErrCheckViolation
	case CodeLocked:
		return target == ErrLocked
	case CodeUnavailable:
		return target == ErrUnavailable
	default:
		return false
	}
}

var (
	uniqueSignatures = []string{
		"unique constraint failed",
		"duplicate key value",
		"sqlstate 23505",
	}
	checkSignatures = []string{
		"check constraint failed",
		"violates check constraint",
		"sqlstate 23514",
	}
	lockSignatures = []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"could not obtain lock",
		"lock timeout",
		"sqlstate 55p03",
	}
	unavailableSignatures = []string{
		"database is closed",
		"connection refused",
		"bad connection",
	}
)

// classify converts a driver error into a *StorageError. Errors that are
// already classified are returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}

	return &StorageError{Op: op, Code: codeFor(err), Err: err}
}

// classifyKnown only wraps errors whose signature is recognised, leaving
// application errors returned from a transaction body untouched.
func classifyKnown(op string, err error) error {
	if err == nil {
		return nil
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}

	code := codeFor(err)
	if code == CodeUnknown {
		return err
	}

	return &StorageError{Op: op, Code: code, Err: err}
}

func codeFor(err error) Code {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return CodeUniqueViolation
	}
	if errors.Is(err, sql.ErrConnDone) {
		return CodeUnavailable
	}

	message := strings.ToLower(err.Error())
	switch {
	case containsAny(message, uniqueSignatures):
		return CodeUniqueViolation
	case containsAny(message, checkSignatures):
		return CodeCheckViolation
	case containsAny(message, lockSignatures):
		return CodeLocked
	case containsAny(message, unavailableSignatures):
		return CodeUnavailable
	default:
		return CodeUnknown
	}
}

func containsAny(message string, signatures []string) bool {
	for _, signature := range signatures {
		if strings.Contains(message, signature) {
			return true
		}
	}
	return false
}
