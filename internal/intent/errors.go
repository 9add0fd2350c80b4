package intent

import (
	"errors"
	"fmt"
)

var (
	ErrHelp               = errors.New("help requested")
	ErrMissingCommand     = errors.New("missing command")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrUnknownFlag        = errors.New("unknown flag")
	ErrMissingArgument    = errors.New("missing argument")
	ErrUnexpectedArgument = errors.New("unexpected argument")
	ErrMalformedNumber    = errors.New("malformed number")
	ErrOutOfRange         = errors.New("value out of range")
	ErrInvalidAddress     = errors.New("invalid IPv4 address")
	ErrInvalidFormat      = errors.New("invalid output format")
)

// ParseError is returned for any input rejected before device contact.
// Kind is one of the Err* sentinels above and matches with errors.Is.
type ParseError struct {
	Kind  error
	Arg   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	switch {
	case e.Arg != "" && e.Value != "":
		msg = fmt.Sprintf("%s: %q for %s", msg, e.Value, e.Arg)
	case e.Arg != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Arg)
	case e.Value != "":
		msg = fmt.Sprintf("%s: %q", msg, e.Value)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Is(target error) bool {
	return target == e.Kind
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
