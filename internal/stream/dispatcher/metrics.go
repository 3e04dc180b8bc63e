package dispatcher

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/stream"
	"dispatch/internal/stream/metrics"
)

// MetricsDispatcher wraps a stream.Dispatcher with metrics collection
type MetricsDispatcher[T, U any] struct {
	dispatcher stream.Dispatcher[T, U]
	registry   *metrics.Registry
}

// NewMetricsDispatcher creates a new instrumented dispatcher
func NewMetricsDispatcher[T, U any](dispatcher stream.Dispatcher[T, U], registry *metrics.Registry) stream.Dispatcher[T, U] {
	return &MetricsDispatcher[T, U]{
		dispatcher: dispatcher,
		registry:   registry,
	}
}

// Dispatch implements stream.Dispatcher.Dispatch with metrics collection. The
// tapped source, every branch action, and the merged output's subscription
// lifecycle are instrumented; dropped events show up as the difference
// between source and branch event counts.
func (m *MetricsDispatcher[T, U]) Dispatch(source stream.Sequence[T], branches []stream.Branch[T, U], otherwise stream.Action[T, U]) (stream.Sequence[U], error) {
	if source != nil {
		source = stream.Map(source, func(v T) (T, error) {
			m.registry.RecordSourceEvent()
			return v, nil
		})
	}

	instrumented := make([]stream.Branch[T, U], len(branches))
	for i, b := range branches {
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("branch_%d", i)
		}
		instrumented[i] = stream.Branch[T, U]{
			Name: b.Name,
			When: b.When,
			Then: m.timed(name, b.Then),
		}
	}

	if otherwise != nil {
		otherwise = m.timed(DefaultBranch, otherwise)
	}

	seq, err := m.dispatcher.Dispatch(source, instrumented, otherwise)

	m.registry.RecordDispatchSetup(len(branches), err)

	if err != nil {
		return nil, err
	}

	return metricsSequence[U]{seq: seq, registry: m.registry}, nil
}

func (m *MetricsDispatcher[T, U]) timed(name string, act stream.Action[T, U]) stream.Action[T, U] {
	if act == nil {
		return nil
	}
	return func(v T) (U, error) {
		start := time.Now()

		u, err := act(v)
		m.registry.RecordBranchEvent(name, time.Since(start), err)

		return u, err
	}
}

// metricsSequence tracks subscription lifecycle and terminal signals on the
// merged output sequence.
type metricsSequence[U any] struct {
	seq      stream.Sequence[U]
	registry *metrics.Registry
}

func (m metricsSequence[U]) Subscribe(ctx context.Context, obs stream.Observer[U]) *stream.Subscription {
	m.registry.SubscriptionOpened()

	sub := m.seq.Subscribe(ctx, stream.Observer[U]{
		OnNext: obs.OnNext,
		OnError: func(err error) {
			m.registry.RecordTerminal(err)
			if obs.OnError != nil {
				obs.OnError(err)
			}
		},
		OnComplete: func() {
			m.registry.RecordTerminal(nil)
			if obs.OnComplete != nil {
				obs.OnComplete()
			}
		},
	})
	sub.OnUnsubscribe(m.registry.SubscriptionClosed)

	return sub
}
