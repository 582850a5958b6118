package config

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKey     = errors.New("unknown key")
	ErrInvalidValue   = errors.New("invalid value")
	ErrMissingField   = errors.New("missing field")
	ErrDeviceNotFound = errors.New("device not found")
)

// Error is a configuration error tied to a section and key.
// Kind is one of the Err* sentinels above; errors.Is matches against it.
type Error struct {
	Kind    error
	Section string // empty for the global section
	Key     string
	Err     error
}

func (e *Error) Error() string {
	section := e.Section
	if section == "" {
		section = "global"
	}
	msg := fmt.Sprintf("config [%s]: %v %q", section, e.Kind, e.Key)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, section, key string, err error) *Error {
	return &Error{Kind: kind, Section: section, Key: key, Err: err}
}
