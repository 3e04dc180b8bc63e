package stream

import (
	"context"
	"sync"
)

// Merge produces a sequence emitting every event from every input, in the
// order each is produced. The merged sequence completes only after all inputs
// have completed, and fails fast: the first input error becomes the merged
// sequence's terminal error and unsubscribes every other input.
func Merge[T any](seqs ...Sequence[T]) Sequence[T] {
	return mergeSequence[T]{srcs: seqs}
}

type mergeSequence[T any] struct {
	srcs []Sequence[T]
}

func (m mergeSequence[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	snk := newSink(obs)

	if len(m.srcs) == 0 {
		snk.Complete()
		return snk.sub
	}

	var (
		mu        sync.Mutex
		remaining = len(m.srcs)
	)
	complete := func() {
		mu.Lock()
		remaining--
		last := remaining == 0
		mu.Unlock()
		if last {
			snk.Complete()
		}
	}

	for _, src := range m.srcs {
		// an earlier input may have errored synchronously; the
		// remaining inputs must not be tapped at all then
		if !snk.sub.Active() {
			break
		}

		up := src.Subscribe(ctx, Observer[T]{
			OnNext:     snk.Next,
			OnError:    snk.Error,
			OnComplete: complete,
		})
		snk.sub.OnUnsubscribe(up.Unsubscribe)
	}

	return snk.sub
}
