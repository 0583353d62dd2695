// Package failure classifies the errors the agent can hit so that the control loop
// can tell a transient page problem from a fatal startup one.
package failure

import (
	"errors"
	"fmt"
)

// Kind names a class of failure.
type Kind string

const (
	// KindElementNotFound: a required UI element did not become visible in time.
	KindElementNotFound Kind = "ELEMENT_NOT_FOUND"
	// KindEvaluationGap: expected candidate content is missing from the page.
	KindEvaluationGap Kind = "EVALUATION_GAP"
	// KindAttachFailure: the browser remote-debugging endpoint is unreachable.
	KindAttachFailure Kind = "ATTACH_FAILURE"
)

// Sentinels for errors.Is.
var (
	ErrElementNotFound = errors.New("element not found")
	ErrEvaluationGap   = errors.New("evaluation gap")
	ErrAttachFailure   = errors.New("attach failure")
)

var sentinels = map[Kind]error{
	KindElementNotFound: ErrElementNotFound,
	KindEvaluationGap:   ErrEvaluationGap,
	KindAttachFailure:   ErrAttachFailure,
}

// Error carries the kind, the operation and the target (selector or endpoint) of a failure.
type Error struct {
	Kind   Kind
	Op     string
	Target string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if s, ok := sentinels[e.Kind]; ok {
		msg = s.Error()
	}
	if e.Target != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Target)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the same kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// ElementNotFound reports that selector never became visible.
func ElementNotFound(op, selector string, err error) error {
	return &Error{Kind: KindElementNotFound, Op: op, Target: selector, Err: err}
}

// EvaluationGap reports missing candidate content. It is logged, never raised past the evaluator.
func EvaluationGap(op, what string) error {
	return &Error{Kind: KindEvaluationGap, Op: op, Target: what}
}

// AttachFailure reports that the browser endpoint could not be attached.
func AttachFailure(endpoint string, err error) error {
	return &Error{Kind: KindAttachFailure, Op: "attach", Target: endpoint, Err: err}
}

// KindOf extracts the kind of the first classified error in the chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// IsFatal reports whether err must stop the process. Only attach failures are fatal.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAttachFailure)
}

// Label returns a short metrics/log label for any error.
func Label(err error) string {
	if kind, ok := KindOf(err); ok {
		return string(kind)
	}
	return "UNCLASSIFIED"
}
