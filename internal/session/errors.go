package session

import "fmt"

// ErrorKind classifies session failures at the I/O boundary. The pure
// scoring code never fails; only loading and submitting can.
type ErrorKind string

const (
	// KindFetch means the question bank could not be loaded. Fatal to the
	// session; a new one must be started.
	KindFetch ErrorKind = "fetch_error"
	// KindSubmission means the answers could not be recorded server-side.
	// The recorded answers are preserved so the user can resubmit.
	KindSubmission ErrorKind = "submission_error"
)

// Error carries the failure kind and, when the server provided one, its
// message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newFetchError(err error) *Error {
	return &Error{Kind: KindFetch, Err: err}
}

func newSubmissionError(message string, err error) *Error {
	return &Error{Kind: KindSubmission, Message: message, Err: err}
}

// KindOf extracts the session error kind, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	if se, ok := err.(*Error); ok {
		return se.Kind
	}
	return ""
}
