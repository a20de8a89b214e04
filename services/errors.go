package services

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindValidation      Kind = "validation_error"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindInternal        Kind = "internal_error"
)

// ValidationKind narrows a KindValidation error.
type ValidationKind string

const (
	MissingFields ValidationKind = "missing_fields"
	InvalidDate   ValidationKind = "invalid_date"
	InvalidTime   ValidationKind = "invalid_time"
	InvalidEnum   ValidationKind = "invalid_enum"
	InvalidField  ValidationKind = "invalid_field"
	UnknownField  ValidationKind = "unknown_field"
	EmptyUpdate   ValidationKind = "empty_update"
	Persistence   ValidationKind = "persistence"
	Conflict      ValidationKind = "conflict"
)

// Error is the single error type returned by the services. Every request
// terminates with at most one of these.
type Error struct {
	Kind       Kind
	Validation ValidationKind
	Message    string

	Fields  []string // MissingFields
	Field   string   // InvalidEnum, InvalidField, UnknownField
	Value   string   // InvalidEnum
	Details []string // Persistence, field-level messages

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Validation != "" {
		b.WriteString("/" + string(e.Validation))
	}
	b.WriteString(": " + e.Message)
	if len(e.Fields) > 0 {
		b.WriteString(" [" + strings.Join(e.Fields, ", ") + "]")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the taxonomy kind of err; unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func ErrUnauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func ErrNotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func ErrForbidden(msg string) error { return &Error{Kind: KindForbidden, Message: msg} }

func ErrInternal(msg string, cause error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

func errMissingFields(fields []string) error {
	return &Error{Kind: KindValidation, Validation: MissingFields, Message: "Missing required fields", Fields: fields}
}

func errInvalidDate() error {
	return &Error{Kind: KindValidation, Validation: InvalidDate, Message: "Invalid date format", Field: "date"}
}

func errInvalidTime() error {
	return &Error{Kind: KindValidation, Validation: InvalidTime, Message: "Invalid time format. Use HH:MM format", Field: "time"}
}

func errInvalidEnum(field, value, what string) error {
	return &Error{
		Kind:       KindValidation,
		Validation: InvalidEnum,
		Message:    fmt.Sprintf("%s is not a valid %s", value, what),
		Field:      field,
		Value:      value,
	}
}

// ErrUnknownField rejects a payload key that is not part of the event schema.
func ErrUnknownField(field string) error {
	return &Error{
		Kind:       KindValidation,
		Validation: UnknownField,
		Message:    fmt.Sprintf("unknown field %q", field),
		Field:      field,
	}
}

func errEmptyUpdate() error {
	return &Error{Kind: KindValidation, Validation: EmptyUpdate, Message: "no fields to update"}
}

func errPersistence(details []string, cause error) error {
	return &Error{Kind: KindValidation, Validation: Persistence, Message: "Validation error", Details: details, Err: cause}
}

func errConflict(msg string) error {
	return &Error{Kind: KindValidation, Validation: Conflict, Message: msg}
}

// ErrBadInput reports a request body that could not be read as a payload.
func ErrBadInput(msg string) error {
	return &Error{Kind: KindValidation, Validation: InvalidField, Message: msg}
}
