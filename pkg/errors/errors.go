// Package errors defines the failure taxonomy of a merge run.
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a run error
type Kind string

const (
	// KindSourceUnavailable means no file matched a supplier's pattern
	KindSourceUnavailable Kind = "source_unavailable"
	// KindSourceLoad means a source file exists but could not be read or parsed
	KindSourceLoad Kind = "source_load"
	// KindNoData means no supplier produced usable data; the run fails
	KindNoData Kind = "no_data"
	// KindEnrichmentAnomaly means a record could not be priced per kilogram
	KindEnrichmentAnomaly Kind = "enrichment_anomaly"
	// KindInvalidConfig means the supplier or run configuration is unusable
	KindInvalidConfig Kind = "invalid_config"
)

// Error is a classified error carrying the supplier and file it relates to
type Error struct {
	Kind     Kind
	Supplier string
	Path     string
	Record   string
	Message  string
	cause    error
}

// New creates an Error of the given kind
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an Error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err, keeping it as the cause
func Wrap(kind Kind, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, cause: pkgerrors.WithStack(err)}
}

func (e *Error) Error() string {
	path := []string{}
	if e.Supplier != "" {
		path = append(path, fmt.Sprintf("supplier '%s'", e.Supplier))
	}
	if e.Path != "" {
		path = append(path, fmt.Sprintf("file '%s'", e.Path))
	}
	if e.Record != "" {
		path = append(path, fmt.Sprintf("record '%s'", e.Record))
	}

	msg := e.Message
	if e.cause != nil {
		msg = msg + ": " + e.cause.Error()
	}
	if len(path) == 0 {
		return msg
	}
	return strings.Join(path, " -> ") + ": " + msg
}

// Unwrap exposes the cause to errors.Is / errors.As
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the root cause, compatible with github.com/pkg/errors
func (e *Error) Cause() error {
	if e.cause == nil {
		return nil
	}
	return pkgerrors.Cause(e.cause)
}

func (e *Error) AddSupplier(supplier string) *Error {
	e.Supplier = supplier
	return e
}

func (e *Error) AddPath(path string) *Error {
	e.Path = path
	return e
}

func (e *Error) AddRecord(name string) *Error {
	e.Record = name
	return e
}

// KindOf returns the kind of the first classified error in err's chain, or "" when none
func KindOf(err error) Kind {
	var classified *Error
	if pkgerrors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsNoData(err error) bool {
	return Is(err, KindNoData)
}
