package stream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dispatch/internal/stream"
)

func TestMergeEmitsAllInputsAndCompletesAfterAll(t *testing.T) {
	rec := new(recorder[int])

	seq := stream.Merge(stream.Just(1, 2), stream.Just(3), stream.Just(4, 5))
	seq.Subscribe(context.Background(), rec.observer())

	// synchronous inputs drain in subscription order
	require.Equal(t, []int{1, 2, 3, 4, 5}, rec.Values())
	require.True(t, rec.Completed())
	require.Equal(t, 1, rec.Terminals())
}

func TestMergeOfNothingCompletesImmediately(t *testing.T) {
	rec := new(recorder[int])

	stream.Merge[int]().Subscribe(context.Background(), rec.observer())

	require.True(t, rec.Completed())
	require.Empty(t, rec.Values())
}

func TestMergeFailsFastOnInputError(t *testing.T) {
	boom := errors.New("boom")
	rec := new(recorder[int])

	later := &countingSource[int]{inner: stream.Just(9)}
	seq := stream.Merge[int](stream.Just(1), stream.Fail[int](boom), later)
	seq.Subscribe(context.Background(), rec.observer())

	require.Equal(t, []int{1}, rec.Values())
	require.Same(t, boom, rec.Err())
	require.False(t, rec.Completed())
	require.Equal(t, 1, rec.Terminals())

	// inputs after the failing one are never tapped
	require.Zero(t, later.subscribes)
}

func TestMergeWaitsForSlowInput(t *testing.T) {
	ch := make(chan int)
	rec := new(recorder[int])

	seq := stream.Merge(stream.Just(1), stream.FromChannel(ch))
	sub := seq.Subscribe(context.Background(), rec.observer())

	// the synchronous input has completed, the merged sequence has not
	require.Equal(t, []int{1}, rec.Values())
	require.False(t, rec.Completed())

	ch <- 2
	close(ch)

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("merge did not complete after all inputs finished")
	}

	require.Equal(t, []int{1, 2}, rec.Values())
	require.True(t, rec.Completed())
}

func TestMergeUnsubscribeStopsAllInputs(t *testing.T) {
	ch := make(chan int)
	rec := new(recorder[int])

	sub := stream.Merge(stream.FromChannel(ch)).Subscribe(context.Background(), rec.observer())
	sub.Unsubscribe()

	close(ch)

	require.Empty(t, rec.Values())
	require.False(t, rec.Completed())
	require.NoError(t, rec.Err())
}
