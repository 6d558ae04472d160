package sim

import (
	"errors"
	"fmt"
)

// Domain errors for session operations.
var (
	// ErrUnknownParam indicates a parameter name neither the session nor the simulation knows.
	ErrUnknownParam = errors.New("sim: unknown parameter")

	// ErrUnknownOption indicates an unsupported discrete selector or choice.
	ErrUnknownOption = errors.New("sim: unknown option")

	// ErrInvalidValue indicates a parameter value outside its valid range.
	ErrInvalidValue = errors.New("sim: invalid parameter value")

	// ErrUnknownEntity indicates a selection of an id that is not in the store.
	ErrUnknownEntity = errors.New("sim: unknown entity")

	// ErrNotStarted indicates a scheduler intent submitted before Start.
	ErrNotStarted = errors.New("sim: scheduler not started")

	// ErrClosed indicates a scheduler intent submitted after Close.
	ErrClosed = errors.New("sim: scheduler closed")
)

// ParamError wraps an error with the offending parameter.
type ParamError struct {
	Name    string
	Value   any
	Wrapped error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s=%v: %v", e.Name, e.Value, e.Wrapped)
}

func (e *ParamError) Unwrap() error {
	return e.Wrapped
}

func invalid(name string, value any) error {
	return &ParamError{Name: name, Value: value, Wrapped: ErrInvalidValue}
}

func unknownParam(name string) error {
	return &ParamError{Name: name, Wrapped: ErrUnknownParam}
}

// InvalidParam is the error a Configurable returns for a rejected value.
func InvalidParam(name string, value any) error { return invalid(name, value) }

// UnknownParam is the error a Configurable returns for a name it does not own.
func UnknownParam(name string) error { return unknownParam(name) }

// UnknownOption is the error a Selectable returns for an unsupported choice.
func UnknownOption(name, value string) error {
	return &ParamError{Name: name, Value: value, Wrapped: ErrUnknownOption}
}
