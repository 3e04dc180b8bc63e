package stream

import (
	"context"
	"sync"
)

// multicast fans one production out to any number of observers. Every
// observer attached when an event is produced receives that event exactly
// once; observers attaching later never receive it (no replay). After a
// terminal signal, late observers receive that signal immediately.
type multicast[T any] struct {
	mu     sync.Mutex
	sinks  []*sink[T]
	done   bool
	err    error
	onZero func()
}

func (m *multicast[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	snk := newSink(obs)

	m.mu.Lock()
	if m.done {
		err := m.err
		m.mu.Unlock()
		if err != nil {
			snk.Error(err)
		} else {
			snk.Complete()
		}
		return snk.sub
	}
	m.sinks = append(m.sinks, snk)
	m.mu.Unlock()

	snk.sub.OnUnsubscribe(func() { m.remove(snk) })

	return snk.sub
}

func (m *multicast[T]) remove(snk *sink[T]) {
	m.mu.Lock()
	for i, s := range m.sinks {
		if s == snk {
			m.sinks = append(m.sinks[:i], m.sinks[i+1:]...)
			break
		}
	}
	zero := len(m.sinks) == 0 && !m.done
	onZero := m.onZero
	m.mu.Unlock()

	if zero && onZero != nil {
		onZero()
	}
}

// snapshot returns the current observer set. Delivery iterates a snapshot so
// that observers removed mid-event stop receiving signals without mutating
// the slice being walked; each sink still gates on its own subscription at
// delivery time.
func (m *multicast[T]) snapshot() []*sink[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*sink[T], len(m.sinks))
	copy(out, m.sinks)
	return out
}

func (m *multicast[T]) Next(v T) {
	for _, s := range m.snapshot() {
		s.Next(v)
	}
}

func (m *multicast[T]) Error(err error) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	m.err = err
	sinks := m.sinks
	m.sinks = nil
	m.mu.Unlock()

	for _, s := range sinks {
		s.Error(err)
	}
}

func (m *multicast[T]) Complete() {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	sinks := m.sinks
	m.sinks = nil
	m.mu.Unlock()

	for _, s := range sinks {
		s.Complete()
	}
}

// Connectable is a multicast tap over a source sequence whose upstream
// production starts only when Connect is called, not when observers
// subscribe. The dispatcher relies on this to attach every branch before a
// synchronous source starts producing.
type Connectable[T any] struct {
	src Sequence[T]
	mc  *multicast[T]

	mu        sync.Mutex
	connected bool
	upstream  *Subscription
}

// Publish wraps seq in a Connectable tap.
func Publish[T any](seq Sequence[T]) *Connectable[T] {
	return &Connectable[T]{src: seq, mc: &multicast[T]{}}
}

// Subscribe attaches an observer to the tap. No upstream production is
// triggered until Connect.
func (c *Connectable[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	return c.mc.Subscribe(ctx, obs)
}

// Connect subscribes the tap to its source, starting production for all
// currently attached observers. It is idempotent; the returned subscription
// tears the single upstream tap down.
func (c *Connectable[T]) Connect(ctx context.Context) *Subscription {
	c.mu.Lock()
	if c.connected {
		up := c.upstream
		c.mu.Unlock()
		return up
	}
	c.connected = true
	c.mu.Unlock()

	up := c.src.Subscribe(ctx, Observer[T]{
		OnNext:     c.mc.Next,
		OnError:    c.mc.Error,
		OnComplete: c.mc.Complete,
	})

	c.mu.Lock()
	c.upstream = up
	c.mu.Unlock()

	return up
}

// Share converts a single-subscriber sequence into a reference-counted
// multicast: the first subscription triggers upstream production, subsequent
// subscriptions attach to the same production, and when the last subscriber
// unsubscribes the upstream tap is torn down. The tap transitions live to
// torn-down exactly once; it is not restarted by later subscribers.
func Share[T any](seq Sequence[T]) Sequence[T] {
	c := Publish(seq)
	c.mc.onZero = func() {
		c.mu.Lock()
		up := c.upstream
		c.mu.Unlock()
		if up != nil {
			up.Unsubscribe()
		}
	}
	return shareSequence[T]{conn: c}
}

type shareSequence[T any] struct {
	conn *Connectable[T]
}

func (s shareSequence[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	sub := s.conn.Subscribe(ctx, obs)
	s.conn.Connect(ctx)
	return sub
}
