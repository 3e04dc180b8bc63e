// Package stream provides a minimal push-based observable core: sequences,
// subscriptions, and the combinators (map, filter, merge, share) needed to
// express multi-way conditional dispatch as stream composition.
//
// Delivery is cooperative and push-driven. Observer callbacks must not
// synchronously re-enter the pipeline of their own subscription (for example
// by feeding an event back into the source they are observing); behavior in
// that case is undefined.
package stream

import "context"

// Sequence is a push-based, time-ordered stream of events of type T. A
// sequence delivers zero or more events to a subscribed observer followed by
// at most one terminal signal (completion or error). No events follow a
// terminal signal.
type Sequence[T any] interface {
	// Subscribe attaches an observer to the sequence and returns the
	// subscription controlling its lifetime. Cold sequences may emit
	// synchronously before Subscribe returns.
	Subscribe(ctx context.Context, obs Observer[T]) *Subscription
}

// Observer receives the signals of a sequence. Nil callbacks are treated as
// no-ops.
type Observer[T any] struct {
	// OnNext is invoked once per event, in emission order.
	OnNext func(T)
	// OnError is invoked at most once, after which no further signals are
	// delivered.
	OnError func(error)
	// OnComplete is invoked at most once, after which no further signals
	// are delivered.
	OnComplete func()
}

// Predicate decides whether an event belongs to a branch. A non-nil error
// aborts the whole pipeline with an error signal.
type Predicate[T any] func(T) (bool, error)

// Action transforms a claimed event into a branch's output. A non-nil error
// aborts the whole pipeline with an error signal.
type Action[T, U any] func(T) (U, error)

// Branch is one arm of a multi-way conditional: a predicate/action pair with
// an implicit position in an ordered list. Branches are evaluated strictly in
// list order for every event; the first branch whose predicate returns true
// claims the event.
type Branch[T, U any] struct {
	// Name labels the branch in errors, metrics, and traces. Unnamed
	// branches are labelled by position.
	Name string
	// When decides whether the branch claims an event.
	When Predicate[T]
	// Then produces the branch's output for a claimed event.
	Then Action[T, U]
}

// Dispatcher routes every event of a source sequence to at most one of an
// ordered list of branches, mimicking an if/else-if chain, and merges the
// branch outputs into a single sequence.
type Dispatcher[T, U any] interface {
	// Dispatch wires source through the given branches and returns the
	// merged output sequence. Events matching no branch are claimed by
	// otherwise when non-nil, and dropped silently when it is nil.
	// Each subscription to the returned sequence taps the source exactly
	// once, regardless of branch count.
	Dispatch(source Sequence[T], branches []Branch[T, U], otherwise Action[T, U]) (Sequence[U], error)
}
