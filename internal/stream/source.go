package stream

import "context"

// Just produces a cold, synchronous sequence that emits the given items in
// order and then completes. Emission happens during Subscribe.
func Just[T any](items ...T) Sequence[T] {
	return sliceSequence[T](items)
}

type sliceSequence[T any] []T

func (s sliceSequence[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	snk := newSink(obs)

	for _, v := range s {
		if !snk.sub.Active() {
			return snk.sub
		}
		snk.Next(v)
	}
	snk.Complete()

	return snk.sub
}

// Fail produces a sequence that terminates immediately with err.
func Fail[T any](err error) Sequence[T] {
	return failSequence[T]{err: err}
}

type failSequence[T any] struct {
	err error
}

func (f failSequence[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	snk := newSink(obs)
	snk.Error(f.err)
	return snk.sub
}

// FromChannel produces a sequence that emits every value received from ch and
// completes when ch is closed. Each subscription spawns one goroutine, which
// exits on channel close, context cancellation, or unsubscription; context
// cancellation ends delivery without a terminal signal, mirroring an explicit
// unsubscribe.
func FromChannel[T any](ch <-chan T) Sequence[T] {
	return channelSequence[T]{ch: ch}
}

type channelSequence[T any] struct {
	ch <-chan T
}

func (c channelSequence[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	snk := newSink(obs)

	go func() {
		for {
			select {
			case <-ctx.Done():
				snk.sub.Unsubscribe()
				return
			case <-snk.sub.Done():
				return
			case v, ok := <-c.ch:
				if !ok {
					snk.Complete()
					return
				}
				snk.Next(v)
			}
		}
	}()

	return snk.sub
}
