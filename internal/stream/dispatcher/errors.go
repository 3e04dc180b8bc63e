package dispatcher

import "fmt"

// PredicateError reports that a branch predicate failed while classifying an
// event. It aborts the whole dispatch: the merged output sequence terminates
// with this error and every branch tap unsubscribes.
type PredicateError struct {
	Branch string
	Err    error
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("predicate for branch %q failed: %v", e.Branch, e.Err)
}

func (e *PredicateError) Unwrap() error {
	return e.Err
}

// ActionError reports that a branch action failed while producing output. It
// aborts the whole dispatch, same as PredicateError. Errors signalled by the
// source itself propagate unchanged, without wrapping.
type ActionError struct {
	Branch string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action for branch %q failed: %v", e.Branch, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
