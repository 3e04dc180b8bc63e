package stream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dispatch/internal/stream"
)

func TestFilterKeepsMatchingEventsInOrder(t *testing.T) {
	rec := new(recorder[int])

	seq := stream.Filter(stream.Just(1, 2, 3, 4, 5, 6), func(n int) (bool, error) {
		return n%2 == 0, nil
	})
	seq.Subscribe(context.Background(), rec.observer())

	require.Equal(t, []int{2, 4, 6}, rec.Values())
	require.True(t, rec.Completed())
}

func TestFilterPredicateErrorAbortsSequence(t *testing.T) {
	boom := errors.New("boom")
	rec := new(recorder[int])

	seq := stream.Filter(stream.Just(1, 2, 3), func(n int) (bool, error) {
		if n == 2 {
			return false, boom
		}
		return true, nil
	})
	seq.Subscribe(context.Background(), rec.observer())

	require.Equal(t, []int{1}, rec.Values())
	require.Same(t, boom, rec.Err())
	require.False(t, rec.Completed())
}
