// Package gerror implements the error taxonomy described in spec §7: a
// small, closed set of error codes, each carrying an audience (internal
// vs external) and enough identifying context (workflow/job/step names)
// for logging, without a persistence layer to store the context in.
package gerror

import "fmt"

// Audience indicates whether an error's message is safe to show outside
// the system (External) or only useful to an operator (Internal).
type Audience string

const (
	AudienceInternal Audience = "internal"
	AudienceExternal Audience = "external"
)

// Code is a closed taxonomy tag, one per row of spec §7's error table.
type Code string

const (
	CodeLoadIO                     Code = "LoadError.Io"
	CodeLoadParse                  Code = "LoadError.Parse"
	CodeLoadTemplateRender         Code = "LoadError.TemplateRender"
	CodeLoadUndefinedVariable      Code = "LoadError.UndefinedVariable"
	CodeValidationInvalidIdentifier Code = "ValidationError.InvalidIdentifier"
	CodeValidationJobNotDefined    Code = "ValidationError.JobNotDefined"
	CodeValidationMissingField     Code = "ValidationError.MissingField"
	CodeDAGCycle                   Code = "DAGError.Cycle"
	CodeDAGNodeMissing             Code = "DAGError.NodeMissing"
	CodeDAGNodeExists              Code = "DAGError.NodeExists"
	CodeContextJobExists           Code = "ContextError.JobExists"
	CodeContextStepNameExisted     Code = "ContextError.StepNameExisted"
	CodeContextNoPendingJob        Code = "ContextError.NoPendingJob"
	CodeStepError                  Code = "StepError"
	CodeCancelled                  Code = "Cancelled"
	CodeTimedOut                   Code = "TimedOut"
)

// Details attaches identifying context to an Error: which workflow, job
// or step was involved when it occurred.
type Details map[string]interface{}

// Error is the taxonomy-tagged error type used throughout the loader,
// scheduler and job runner.
type Error struct {
	code     Code
	audience Audience
	message  string
	details  Details
	inner    error
}

// New creates a new taxonomy-tagged error.
func New(code Code, audience Audience, message string) Error {
	return Error{code: code, audience: audience, message: message}
}

// Wrap returns a copy of e with inner set as its wrapped cause.
func (e Error) Wrap(inner error) Error {
	e.inner = inner
	return e
}

// With returns a copy of e with an additional identifying detail attached.
func (e Error) With(key string, value interface{}) Error {
	details := make(Details, len(e.details)+1)
	for k, v := range e.details {
		details[k] = v
	}
	details[key] = value
	e.details = details
	return e
}

func (e Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.code, e.message)
	for _, k := range orderedKeys(e.details) {
		msg += fmt.Sprintf(" %s=%v", k, e.details[k])
	}
	if e.inner != nil {
		msg += fmt.Sprintf(": %v", e.inner)
	}
	return msg
}

func (e Error) Unwrap() error { return e.inner }

func (e Error) Code() Code { return e.code }

func (e Error) Audience() Audience { return e.audience }

func (e Error) Details() Details {
	out := make(Details, len(e.details))
	for k, v := range e.details {
		out[k] = v
	}
	return out
}

// Is reports whether err is a gerror.Error with the given code, or
// wraps one, unwrapping as needed. A multi-error (such as
// *multierror.Error, which exposes its members via WrappedErrors) is
// searched branch by branch, since a loader validation pass commonly
// accumulates several unrelated failures into one returned error.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	if gerr, ok := err.(Error); ok {
		if gerr.code == code {
			return true
		}
		return Is(gerr.inner, code)
	}
	if multi, ok := err.(interface{ WrappedErrors() []error }); ok {
		for _, wrapped := range multi.WrappedErrors() {
			if Is(wrapped, code) {
				return true
			}
		}
		return false
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return Is(u.Unwrap(), code)
	}
	return false
}

// orderedKeys returns the keys of d in a deterministic order so that
// Error() produces stable output for logging and tests.
func orderedKeys(d Details) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
