package stream

import "context"

// Filter produces a lazy sequence containing only the events of seq for which
// pred returns true, preserving order. A non-nil error from pred propagates
// downstream as an error signal and tears down the upstream subscription.
func Filter[T any](seq Sequence[T], pred Predicate[T]) Sequence[T] {
	return filterSequence[T]{src: seq, pred: pred}
}

type filterSequence[T any] struct {
	src  Sequence[T]
	pred Predicate[T]
}

func (f filterSequence[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	snk := newSink(obs)

	up := f.src.Subscribe(ctx, Observer[T]{
		OnNext: func(v T) {
			ok, err := f.pred(v)
			if err != nil {
				snk.Error(err)
				return
			}
			if ok {
				snk.Next(v)
			}
		},
		OnError:    snk.Error,
		OnComplete: snk.Complete,
	})
	snk.sub.OnUnsubscribe(up.Unsubscribe)

	return snk.sub
}
