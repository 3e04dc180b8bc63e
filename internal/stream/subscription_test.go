package stream_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dispatch/internal/stream"
)

func TestUnsubscribeIsIdempotent(t *testing.T) {
	ch := make(chan int)
	defer close(ch)

	var teardowns int
	sub := stream.FromChannel(ch).Subscribe(context.Background(), stream.Observer[int]{})
	sub.OnUnsubscribe(func() { teardowns++ })

	sub.Unsubscribe()
	sub.Unsubscribe()

	require.Equal(t, 1, teardowns)
	require.False(t, sub.Active())
}

func TestOnUnsubscribeAfterCloseRunsImmediately(t *testing.T) {
	rec := new(recorder[int])
	sub := stream.Just(1).Subscribe(context.Background(), rec.observer())

	// the synchronous source already completed during Subscribe
	require.False(t, sub.Active())

	var ran bool
	sub.OnUnsubscribe(func() { ran = true })
	require.True(t, ran)
}

func TestTerminalSignalClosesSubscription(t *testing.T) {
	rec := new(recorder[int])
	sub := stream.Just(1, 2).Subscribe(context.Background(), rec.observer())

	require.False(t, sub.Active())
	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel not closed after completion")
	}
}

func TestNoDeliveryAfterUnsubscribeMidStream(t *testing.T) {
	ch := make(chan int, 3)

	var (
		mu        sync.Mutex
		got       []int
		completed bool
	)

	var sub *stream.Subscription
	sub = stream.FromChannel(ch).Subscribe(context.Background(), stream.Observer[int]{
		OnNext: func(n int) {
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
			// unsubscribing from inside an event callback must cut off
			// every later event and the completion signal
			if n == 2 {
				sub.Unsubscribe()
			}
		},
		OnComplete: func() {
			mu.Lock()
			completed = true
			mu.Unlock()
		},
	})

	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not close")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2}, got)
	require.False(t, completed)
}
