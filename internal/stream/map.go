package stream

import "context"

// Map produces a lazy sequence applying f to each event of seq. A non-nil
// error from f propagates downstream as an error signal and tears down the
// upstream subscription; completion and upstream errors pass through
// unchanged.
func Map[T, U any](seq Sequence[T], f Action[T, U]) Sequence[U] {
	return mapSequence[T, U]{src: seq, f: f}
}

type mapSequence[T, U any] struct {
	src Sequence[T]
	f   Action[T, U]
}

func (m mapSequence[T, U]) Subscribe(ctx context.Context, obs Observer[U]) *Subscription {
	snk := newSink(obs)

	up := m.src.Subscribe(ctx, Observer[T]{
		OnNext: func(v T) {
			u, err := m.f(v)
			if err != nil {
				snk.Error(err)
				return
			}
			snk.Next(u)
		},
		OnError:    snk.Error,
		OnComplete: snk.Complete,
	})
	snk.sub.OnUnsubscribe(up.Unsubscribe)

	return snk.sub
}
