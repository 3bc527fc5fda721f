package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")

	// ErrCorruptStore reports a stored blob that could not be decoded.
	ErrCorruptStore = errors.New("corrupt store")

	// ErrStoreUnavailable reports an I/O failure from the key-value store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InputError lists field level problems with caller input.
// It matches ErrInvalidInput under errors.Is.
type InputError struct {
	Fields map[string]string
}

// NewInputError returns an InputError for a single field.
func NewInputError(field, message string) *InputError {
	e := &InputError{}
	e.Add(field, message)
	return e
}

// Add records a problem with field.
func (e *InputError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// HasErrors reports whether any field problems were recorded.
func (e *InputError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *InputError) Error() string {
	if !e.HasErrors() {
		return ErrInvalidInput.Error()
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e.Fields[f]
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
