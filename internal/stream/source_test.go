package stream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dispatch/internal/stream"
)

func TestJustEmitsInOrderThenCompletes(t *testing.T) {
	rec := new(recorder[int])

	stream.Just(1, 2, 3).Subscribe(context.Background(), rec.observer())

	require.Equal(t, []int{1, 2, 3}, rec.Values())
	require.True(t, rec.Completed())
	require.Equal(t, 1, rec.Terminals())
}

func TestJustEmptyCompletesImmediately(t *testing.T) {
	rec := new(recorder[int])

	stream.Just[int]().Subscribe(context.Background(), rec.observer())

	require.Empty(t, rec.Values())
	require.True(t, rec.Completed())
}

func TestFailTerminatesWithError(t *testing.T) {
	boom := errors.New("boom")
	rec := new(recorder[int])

	sub := stream.Fail[int](boom).Subscribe(context.Background(), rec.observer())

	require.Empty(t, rec.Values())
	require.Same(t, boom, rec.Err())
	require.False(t, sub.Active())
}

func TestFromChannelEmitsUntilClose(t *testing.T) {
	ch := make(chan string)
	rec := new(recorder[string])

	sub := stream.FromChannel(ch).Subscribe(context.Background(), rec.observer())

	ch <- "a"
	ch <- "b"
	close(ch)

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("sequence did not terminate after channel close")
	}

	require.Equal(t, []string{"a", "b"}, rec.Values())
	require.True(t, rec.Completed())
}

func TestFromChannelUnsubscribeStopsDelivery(t *testing.T) {
	ch := make(chan int, 8)
	rec := new(recorder[int])

	sub := stream.FromChannel(ch).Subscribe(context.Background(), rec.observer())
	sub.Unsubscribe()

	ch <- 1
	close(ch)

	// the goroutine exits on the closed subscription without delivering
	require.Eventually(t, func() bool { return !sub.Active() }, time.Second, 10*time.Millisecond)
	require.Empty(t, rec.Values())
	require.False(t, rec.Completed())
	require.NoError(t, rec.Err())
}

func TestFromChannelContextCancelEndsWithoutTerminal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan int)
	rec := new(recorder[int])

	sub := stream.FromChannel(ch).Subscribe(ctx, rec.observer())
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not close on context cancellation")
	}

	require.False(t, rec.Completed())
	require.NoError(t, rec.Err())
}
