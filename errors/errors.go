package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseOpen    Phase = "open"    // store open/destroy
	PhaseRead    Phase = "read"    // point lookups
	PhaseWrite   Phase = "write"   // put/delete
	PhaseBatch   Phase = "batch"   // batch mutation and atomic apply
	PhaseIterate Phase = "iterate" // cursor positioning and access
	PhaseHandle  Phase = "handle"  // handle registry
	PhaseMarshal Phase = "marshal" // copying bytes across the guest boundary
	PhaseHost    Phase = "host"    // host module registration
	PhaseDump    Phase = "dump"    // dump/restore streams
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindFailure       Kind = "failure"
	KindOutOfMemory   Kind = "out_of_memory"
	KindHandleClosed  Kind = "handle_closed"
	KindInvalidCursor Kind = "invalid_cursor"
	KindInvalidInput  Kind = "invalid_input"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindRegistration  Kind = "registration"
)

// Kind-only sentinels. errors.Is(err, ErrNotFound) matches any phase.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrFailure       = &Error{Kind: KindFailure}
	ErrOutOfMemory   = &Error{Kind: KindOutOfMemory}
	ErrHandleClosed  = &Error{Kind: KindHandleClosed}
	ErrInvalidCursor = &Error{Kind: KindInvalidCursor}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
)

// Error is the structured error type used across the binding
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Message is the text reported across the boundary for failure-class errors.
// It prefers the detail, then the cause, then the kind.
func (e *Error) Message() string {
	switch {
	case e.Detail != "" && e.Cause != nil:
		return e.Detail + ": " + e.Cause.Error()
	case e.Detail != "":
		return e.Detail
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the outcomes a caller can observe

// NotFound reports a missing key
func NotFound(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: "Not found",
	}
}

// Failure wraps an engine error, keeping its message
func Failure(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFailure,
		Detail: detail,
		Cause:  cause,
	}
}

// HandleClosed reports use of a closed, released or never-issued handle
func HandleClosed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindHandleClosed,
		Detail: what + " closed",
	}
}

// InvalidCursor reports key/value/next on a cursor that is not positioned
func InvalidCursor() *Error {
	return &Error{
		Phase:  PhaseIterate,
		Kind:   KindInvalidCursor,
		Detail: "Cursor is not valid",
	}
}

// OutOfMemory reports an allocation failure while producing a result
func OutOfMemory(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfMemory,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Value:  size,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// OutOfBounds reports a guest pointer range outside linear memory
func OutOfBounds(phase Phase, ptr, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, %d+%d) outside memory", ptr, ptr, length),
		Value:  ptr,
	}
}

// Registration creates a host function registration error
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", namespace, name),
		Cause:  cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindFailure
// for foreign errors. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFailure
}

// IsNotFound reports whether err is a missing-key outcome
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsHandleClosed reports whether err came from a closed or absent handle
func IsHandleClosed(err error) bool {
	return KindOf(err) == KindHandleClosed
}
