// Package shellerr defines the shell's error taxonomy: a small, closed set
// of error kinds with stable exit-code mappings, in the style of the
// teacher's pkgs/errors package (a typed Kind plus a Cause chain rather than
// ad-hoc fmt.Errorf strings).
package shellerr

import "fmt"

// Kind identifies a category of shell failure. Kinds double as exit-code
// selectors via ExitCode.
type Kind string

const (
	KindSyntax                    Kind = "SYNTAX_ERROR"
	KindCommandNotFound           Kind = "COMMAND_NOT_FOUND"
	KindNotExecutable             Kind = "NOT_EXECUTABLE"
	KindBadFileDescriptor         Kind = "BAD_FILE_DESCRIPTOR"
	KindIOFailure                 Kind = "IO_FAILURE"
	KindReadonlyVariable          Kind = "READONLY_VARIABLE"
	KindNotArray                  Kind = "NOT_ARRAY"
	KindConversionBetweenArrays   Kind = "CONVERSION_BETWEEN_ARRAY_KINDS"
	KindAssigningListToArrayMember Kind = "ASSIGNING_LIST_TO_ARRAY_MEMBER"
	KindFunctionNotFound          Kind = "FUNCTION_NOT_FOUND"
	KindTildeWithoutValidHome     Kind = "TILDE_WITHOUT_VALID_HOME"
	KindUnboundVariable           Kind = "UNBOUND_VARIABLE"
	KindParameterNullOrUnset      Kind = "PARAMETER_NULL_OR_UNSET"
	KindBadSubstitution           Kind = "BAD_SUBSTITUTION"
	KindDivisionByZero            Kind = "DIVISION_BY_ZERO"
	KindUnimplemented             Kind = "UNIMPLEMENTED"
)

// ShellError is a structured error with a kind, message, and optional cause.
type ShellError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *ShellError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ShellError) Unwrap() error { return e.Cause }

// New creates a ShellError with no underlying cause.
func New(kind Kind, message string) *ShellError {
	return &ShellError{Kind: kind, Message: message}
}

// Newf creates a ShellError with a formatted message.
func Newf(kind Kind, format string, args ...any) *ShellError {
	return &ShellError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a ShellError that chains an underlying cause.
func Wrap(kind Kind, message string, cause error) *ShellError {
	return &ShellError{Kind: kind, Message: message, Cause: cause}
}

// ExitCode maps a Kind to the POSIX-ish exit status spec.md §6/§7 assigns it.
// Kinds that aren't terminal command failures (control transfers live in
// internal/interp as ControlError, not here) default to 1.
func ExitCode(k Kind) int {
	switch k {
	case KindSyntax:
		return 2
	case KindCommandNotFound:
		return 127
	case KindNotExecutable:
		return 126
	default:
		return 1
	}
}

// As reports whether err is a *ShellError of the given kind.
func As(err error, k Kind) bool {
	var se *ShellError
	for err != nil {
		if e, ok := err.(*ShellError); ok {
			se = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return se != nil && se.Kind == k
}
