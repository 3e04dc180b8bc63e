package stream_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"dispatch/internal/stream"
)

func TestMapTransformsEveryEvent(t *testing.T) {
	rec := new(recorder[string])

	seq := stream.Map(stream.Just(1, 2, 3), func(n int) (string, error) {
		return strconv.Itoa(n * 10), nil
	})
	seq.Subscribe(context.Background(), rec.observer())

	require.Equal(t, []string{"10", "20", "30"}, rec.Values())
	require.True(t, rec.Completed())
}

func TestMapErrorAbortsSequence(t *testing.T) {
	boom := errors.New("boom")
	rec := new(recorder[int])

	seq := stream.Map(stream.Just(1, 2, 3, 4), func(n int) (int, error) {
		if n == 3 {
			return 0, boom
		}
		return n, nil
	})
	seq.Subscribe(context.Background(), rec.observer())

	// events before the failure are delivered in order, then the single
	// error terminal and nothing else
	require.Equal(t, []int{1, 2}, rec.Values())
	require.Same(t, boom, rec.Err())
	require.False(t, rec.Completed())
	require.Equal(t, 1, rec.Terminals())
}

func TestMapPropagatesUpstreamError(t *testing.T) {
	boom := errors.New("upstream")
	rec := new(recorder[int])

	seq := stream.Map(stream.Fail[int](boom), func(n int) (int, error) { return n, nil })
	seq.Subscribe(context.Background(), rec.observer())

	require.Same(t, boom, rec.Err())
}
