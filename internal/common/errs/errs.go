// Package errs classifies failures of the sync pipeline so callers can decide
// whether an error aborts a run, is recorded as data, or is only logged.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the failure class of an error.
type Kind string

const (
	// KindConfiguration is a missing or invalid configuration value. Fatal,
	// raised before any network activity.
	KindConfiguration Kind = "configuration"

	// KindAuthentication is a token acquisition failure. Fatal for the run.
	KindAuthentication Kind = "authentication"

	// KindTransport is a non-2xx response or network fault from a remote system.
	KindTransport Kind = "transport"

	// KindValidation is a field-level problem. Never aborts a batch.
	KindValidation Kind = "validation"

	// KindPersistence is a checkpoint or ledger write failure.
	KindPersistence Kind = "persistence"

	// KindNotFound means the addressed record does not exist.
	KindNotFound Kind = "not_found"

	// KindAlreadyExists means a record with the same identifier exists.
	KindAlreadyExists Kind = "already_exists"

	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Error carries a Kind and the operation that failed around a cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with a kind and operation name. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the outermost Kind found in the chain of err.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Fatal reports whether an error of this kind must abort a sync run.
func Fatal(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindPersistence:
		return false
	}
	return err != nil
}
