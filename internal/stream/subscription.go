package stream

import "sync"

// Subscription tracks one observer's attachment to a sequence. It transitions
// from active to closed exactly once, either through Unsubscribe or through a
// terminal signal, and runs its teardown functions on that transition.
type Subscription struct {
	mu       sync.Mutex
	closed   bool
	teardown []func()
	done     chan struct{}
}

func newSubscription() *Subscription {
	return &Subscription{done: make(chan struct{})}
}

// Active reports whether the subscription still accepts deliveries. Operators
// consult it at delivery time so that no signal reaches an observer after
// unsubscription.
func (s *Subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Unsubscribe tears the subscription down: all registered teardown functions
// run, transitively unsubscribing upstream stages, and no further signals are
// delivered. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.close() {
		s.runTeardown()
	}
}

// Done returns a channel that is closed when the subscription closes, either
// through Unsubscribe or a terminal signal.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// OnUnsubscribe registers a teardown function. If the subscription is already
// closed the function runs immediately; this keeps teardown transitive even
// when an upstream terminates synchronously during wiring.
func (s *Subscription) OnUnsubscribe(f func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		f()
		return
	}
	s.teardown = append(s.teardown, f)
	s.mu.Unlock()
}

// close marks the subscription closed. It reports whether this call performed
// the transition, which latches terminal signals to at-most-once.
func (s *Subscription) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.done)
	return true
}

func (s *Subscription) runTeardown() {
	s.mu.Lock()
	fns := s.teardown
	s.teardown = nil
	s.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// sink couples an observer to its subscription and enforces the delivery
// contract: events only while active, at most one terminal signal, and
// transitive teardown once the terminal callback has been delivered.
type sink[T any] struct {
	sub *Subscription
	obs Observer[T]
}

func newSink[T any](obs Observer[T]) *sink[T] {
	return &sink[T]{sub: newSubscription(), obs: obs}
}

func (s *sink[T]) Next(v T) {
	if !s.sub.Active() {
		return
	}
	if s.obs.OnNext != nil {
		s.obs.OnNext(v)
	}
}

func (s *sink[T]) Error(err error) {
	if !s.sub.close() {
		return
	}
	if s.obs.OnError != nil {
		s.obs.OnError(err)
	}
	s.sub.runTeardown()
}

func (s *sink[T]) Complete() {
	if !s.sub.close() {
		return
	}
	if s.obs.OnComplete != nil {
		s.obs.OnComplete()
	}
	s.sub.runTeardown()
}
