package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"dispatch/internal/stream"
	"dispatch/internal/stream/tracing"
)

// TracedDispatcher wraps a stream.Dispatcher with distributed tracing
// Layer order: TracedDispatcher -> MetricsDispatcher -> Dispatcher (real thing)
type TracedDispatcher[T, U any] struct {
	dispatcher stream.Dispatcher[T, U]
	tracer     *tracing.Tracer
}

// NewTracedDispatcher creates a new traced dispatcher that wraps a metrics dispatcher
func NewTracedDispatcher[T, U any](dispatcher stream.Dispatcher[T, U], tracer *tracing.Tracer) stream.Dispatcher[T, U] {
	return &TracedDispatcher[T, U]{
		dispatcher: dispatcher,
		tracer:     tracer,
	}
}

// Dispatch implements stream.Dispatcher.Dispatch with distributed tracing.
// Wiring is traced as one span; each subscription to the returned sequence is
// traced as its own span, ended on the terminal signal or on unsubscribe.
func (t *TracedDispatcher[T, U]) Dispatch(source stream.Sequence[T], branches []stream.Branch[T, U], otherwise stream.Action[T, U]) (stream.Sequence[U], error) {
	ctx, span := t.tracer.StartSpan(context.Background(), "dispatcher.dispatch")
	defer span.End()

	span.SetAttributes(t.tracer.DispatchAttributes(len(branches), otherwise != nil)...)

	seq, err := t.dispatcher.Dispatch(source, branches, otherwise)

	if err != nil {
		t.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(t.tracer.ErrorAttributes(err)...)

	if err != nil {
		return nil, err
	}

	return tracedSequence[U]{
		seq:        seq,
		tracer:     t.tracer,
		branches:   len(branches),
		hasDefault: otherwise != nil,
	}, nil
}

// tracedSequence traces the lifetime of each subscription to the merged
// output sequence.
type tracedSequence[U any] struct {
	seq        stream.Sequence[U]
	tracer     *tracing.Tracer
	branches   int
	hasDefault bool
}

func (t tracedSequence[U]) Subscribe(ctx context.Context, obs stream.Observer[U]) *stream.Subscription {
	ctx, span := t.tracer.StartSpan(ctx, "dispatch.run")
	span.SetAttributes(t.tracer.DispatchAttributes(t.branches, t.hasDefault)...)

	var (
		delivered atomic.Int64
		once      sync.Once
	)
	finish := func(err error) {
		once.Do(func() {
			span.SetAttributes(attribute.Int64("dispatch.events_delivered", delivered.Load()))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		})
	}

	sub := t.seq.Subscribe(ctx, stream.Observer[U]{
		OnNext: func(u U) {
			delivered.Add(1)
			if obs.OnNext != nil {
				obs.OnNext(u)
			}
		},
		OnError: func(err error) {
			finish(err)
			if obs.OnError != nil {
				obs.OnError(err)
			}
		},
		OnComplete: func() {
			span.SetStatus(codes.Ok, "")
			finish(nil)
			if obs.OnComplete != nil {
				obs.OnComplete()
			}
		},
	})

	// explicit unsubscribe before any terminal signal still ends the span
	sub.OnUnsubscribe(func() {
		finish(nil)
	})

	return sub
}
