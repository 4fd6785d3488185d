// Package orcherr defines the orchestrator's error taxonomy. Typed errors
// let cmd map failures to exit codes and let the event loop decide whether
// a failure should mark a task FAILED or merely be logged.
package orcherr

import "fmt"

// Kind identifies a category in the error taxonomy.
type Kind string

const (
	KindConfigError           Kind = "config_error"
	KindExecutorNotFound      Kind = "executor_not_found"
	KindTimeout               Kind = "timeout"
	KindNonZeroExit           Kind = "non_zero_exit"
	KindOutputValidationError Kind = "output_validation_error"
	KindPostProcessError      Kind = "post_process_error"
	KindPollerError           Kind = "poller_error"
	KindWatcherError          Kind = "watcher_error"
	KindPolicyDenied          Kind = "policy_denied"
)

// Error is a taxonomy-tagged error. Wrap any underlying cause with New so
// callers further up the stack can switch on Kind without string matching.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a tagged Error.
func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindOf walks err's Unwrap chain looking for a tagged *Error and returns
// its Kind, or ok=false if none is found.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if oe, ok := err.(*Error); ok {
			return oe.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return "", false
}
