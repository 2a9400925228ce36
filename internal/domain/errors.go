package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for propagation to the caller.
type Kind string

const (
	KindDataUnavailable       Kind = "data_unavailable"
	KindUnknownEntity         Kind = "unknown_entity"
	KindMissingFeatureColumns Kind = "missing_feature_columns"
	KindInvalidRequest        Kind = "invalid_request"
	KindUnclassified          Kind = "unclassified"
)

// ClientError reports whether failures of this kind are caused by the
// request rather than the server.
func (k Kind) ClientError() bool {
	return k != KindUnclassified
}

// Error is a classified pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnclassified when there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnclassified
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrDataUnavailable reports that no history exists at or before end.
func ErrDataUnavailable(city string, end Date) *Error {
	return newError(KindDataUnavailable, nil, "no climate data for %s up to %s", city, end)
}

// ErrIncompleteHistory reports a history row inside the window with blank
// feature cells.
func ErrIncompleteHistory(city string, day Date, blank []string) *Error {
	return newError(KindDataUnavailable, nil, "incomplete climate data for %s on %s: [%s]", city, day, strings.Join(blank, ", "))
}

// ErrUnknownEntity reports a city code or name that cannot be resolved.
func ErrUnknownEntity(city string) *Error {
	return newError(KindUnknownEntity, nil, "city %q not found", city)
}

// ErrMissingFeatureColumns reports scaler features absent from the history.
func ErrMissingFeatureColumns(city string, missing []string) *Error {
	return newError(KindMissingFeatureColumns, nil, "missing feature columns for %s: [%s]", city, strings.Join(missing, ", "))
}

// ErrInvalidRequest reports a malformed request field.
func ErrInvalidRequest(err error, format string, args ...any) *Error {
	return newError(KindInvalidRequest, err, format, args...)
}

// ErrUnclassified wraps an unexpected failure.
func ErrUnclassified(err error, format string, args ...any) *Error {
	return newError(KindUnclassified, err, format, args...)
}
