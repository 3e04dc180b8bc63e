// Package dispatcher routes the events of one source sequence across an
// ordered list of predicate/action branches, mimicking an if/else-if chain
// with first-match-wins semantics, and merges the branch outputs into a
// single sequence.
package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"dispatch/internal/stream"
	"dispatch/internal/validator"
)

// DefaultBranch labels the optional fallback branch in errors, metrics, and
// traces.
const DefaultBranch = "default"

// ErrNoBranches is returned by Dispatch when there is nothing to route to.
var ErrNoBranches = errors.New("dispatch requires at least one branch or a default action")

type Dispatcher[T, U any] struct {
	logger *zap.Logger
}

func NewDispatcher[T, U any](logger *zap.Logger) (*Dispatcher[T, U], error) {
	d := Dispatcher[T, U]{
		logger: logger,
	}

	if err := validator.Validate("dispatcher", d.logger); err != nil {
		return nil, fmt.Errorf("failed to validate dispatcher deps: %w", err)
	}

	return &d, nil
}

// Dispatch wires source through branches and returns the merged output
// sequence. The sequence is cold: each subscription taps the source once,
// attaches every branch to that tap, and only then starts production, so a
// synchronous source cannot drain before all branches are listening.
func (d *Dispatcher[T, U]) Dispatch(source stream.Sequence[T], branches []stream.Branch[T, U], otherwise stream.Action[T, U]) (stream.Sequence[U], error) {
	if source == nil {
		return nil, errors.New("dispatch requires a source sequence")
	}
	if len(branches) == 0 && otherwise == nil {
		return nil, ErrNoBranches
	}

	named := make([]stream.Branch[T, U], len(branches))
	for i, b := range branches {
		if b.When == nil || b.Then == nil {
			return nil, fmt.Errorf("branch %d requires both a predicate and an action", i)
		}
		if b.Name == "" {
			b.Name = fmt.Sprintf("branch_%d", i)
		}
		named[i] = b
	}

	d.logger.Debug("wired dispatch",
		zap.Int("branches", len(named)),
		zap.Bool("default", otherwise != nil),
	)

	return dispatchSequence[T, U]{
		branches:  named,
		otherwise: otherwise,
		source:    source,
	}, nil
}

type dispatchSequence[T, U any] struct {
	branches  []stream.Branch[T, U]
	otherwise stream.Action[T, U]
	source    stream.Sequence[T]
}

func (d dispatchSequence[T, U]) Subscribe(ctx context.Context, obs stream.Observer[U]) *stream.Subscription {
	tap := stream.Publish(d.source)

	outs := make([]stream.Sequence[U], 0, len(d.branches)+1)
	for i := range d.branches {
		b := d.branches[i]
		outs = append(outs, stream.Map(
			stream.Filter[T](tap, d.exclusive(i)),
			claim(b.Name, b.Then),
		))
	}
	if d.otherwise != nil {
		outs = append(outs, stream.Map(
			stream.Filter[T](tap, d.unmatched()),
			claim(DefaultBranch, d.otherwise),
		))
	}

	sub := stream.Merge(outs...).Subscribe(ctx, obs)

	up := tap.Connect(ctx)
	sub.OnUnsubscribe(up.Unsubscribe)

	return sub
}

// exclusive builds branch i's exclusivity predicate: its own predicate
// conjoined with the negation of every earlier predicate, evaluated left to
// right. Streams have no shared call stack to short-circuit across, so
// first-match-wins is encoded in the predicate itself; predicates are assumed
// pure, making the re-evaluation indistinguishable from a single else-if
// walk.
func (d dispatchSequence[T, U]) exclusive(i int) stream.Predicate[T] {
	return func(v T) (bool, error) {
		for j, b := range d.branches[:i+1] {
			ok, err := b.When(v)
			if err != nil {
				return false, &PredicateError{Branch: b.Name, Err: err}
			}
			if ok {
				return j == i, nil
			}
		}
		return false, nil
	}
}

// unmatched claims events no branch predicate matched.
func (d dispatchSequence[T, U]) unmatched() stream.Predicate[T] {
	return func(v T) (bool, error) {
		for _, b := range d.branches {
			ok, err := b.When(v)
			if err != nil {
				return false, &PredicateError{Branch: b.Name, Err: err}
			}
			if ok {
				return false, nil
			}
		}
		return true, nil
	}
}

func claim[T, U any](name string, act stream.Action[T, U]) stream.Action[T, U] {
	return func(v T) (U, error) {
		u, err := act(v)
		if err != nil {
			var zero U
			return zero, &ActionError{Branch: name, Err: err}
		}
		return u, nil
	}
}
