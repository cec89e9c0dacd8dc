package exitcode

import (
	"errors"
	"fmt"

	"golang.org/x/xerrors"
)

type wrapped struct {
	code  ExitCode
	cause error
}

func (w wrapped) Error() string {
	// Don't print the exit code, just the cause.
	return w.cause.Error()
}

func (w wrapped) Unwrap() error {
	return w.cause
}

func (w wrapped) FormatError(p xerrors.Printer) error {
	p.Printf("%s", w.code.Error())
	return w.cause
}

func (w wrapped) Format(s fmt.State, v rune) {
	xerrors.FormatError(w, s, v)
}

func (w wrapped) Is(target error) bool {
	if c, ok := target.(ExitCode); ok {
		return w.code == c
	}
	return false
}

var _ error = wrapped{}

// Wrapf attaches an error message, and possibly an error, to the exit code.
//
//	err := ErrInvalidArgument.Wrapf("derived address %s does not match %s", want, got)
//	exitcode.Unwrap(err, Ok) == ErrInvalidArgument
func (x ExitCode) Wrapf(msg string, args ...interface{}) error {
	return wrapped{x, xerrors.Errorf(msg, args...)}
}

// Wrap attaches an existing error to the exit code.
func (x ExitCode) Wrap(err error) error {
	return wrapped{x, err}
}

// Unwrap extracts the outermost exit code from an error chain, or returns defaultExitCode
// if there is none.
func Unwrap(err error, defaultExitCode ExitCode) (code ExitCode) {
	if err == nil {
		return Ok
	}
	var w wrapped
	if errors.As(err, &w) {
		return w.code
	}
	var c ExitCode
	if errors.As(err, &c) {
		return c
	}
	return defaultExitCode
}
