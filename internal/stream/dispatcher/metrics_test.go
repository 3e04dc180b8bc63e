package dispatcher_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dispatch/internal/stream"
	"dispatch/internal/stream/dispatcher"
	"dispatch/internal/stream/metrics"
)

func scrape(t *testing.T, registry *metrics.Registry) string {
	t.Helper()

	rr := httptest.NewRecorder()
	registry.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rr.Code)

	return rr.Body.String()
}

func TestMetricsDispatcherPreservesRouting(t *testing.T) {
	registry := metrics.NewRegistry()
	base := newDispatcher(t)
	d := dispatcher.NewMetricsDispatcher[int, string](base, registry)

	out, err := d.Dispatch(stream.Just(1, 2, 3, 4, 5, 6), evenBigBranches(), other)
	require.NoError(t, err)

	rec := new(recorder)
	out.Subscribe(context.Background(), rec.observer())

	require.Equal(t, []string{"other:1", "even:2", "other:3", "even:4", "big:5", "even:6"}, rec.values)
	require.True(t, rec.completed)
}

func TestMetricsDispatcherRecordsPipelineCounters(t *testing.T) {
	registry := metrics.NewRegistry()
	base := newDispatcher(t)
	d := dispatcher.NewMetricsDispatcher[int, string](base, registry)

	out, err := d.Dispatch(stream.Just(1, 2, 3, 4, 5, 6), evenBigBranches(), other)
	require.NoError(t, err)

	out.Subscribe(context.Background(), new(recorder).observer())

	body := scrape(t, registry)
	require.Contains(t, body, `dispatch_source_events_total 6`)
	require.Contains(t, body, `dispatch_branch_events_total{branch="even",status="success"} 3`)
	require.Contains(t, body, `dispatch_branch_events_total{branch="big",status="success"} 1`)
	require.Contains(t, body, `dispatch_branch_events_total{branch="default",status="success"} 2`)
	require.Contains(t, body, `dispatch_terminal_total{signal="complete"} 1`)
	require.Contains(t, body, `dispatch_subscriptions_total 1`)
	require.Contains(t, body, `dispatch_subscriptions_active 0`)
	require.Contains(t, body, `dispatch_setup_total{status="success"} 1`)
}

func TestMetricsDispatcherRecordsSetupError(t *testing.T) {
	registry := metrics.NewRegistry()
	base, err := dispatcher.NewDispatcher[int, string](zap.NewNop())
	require.NoError(t, err)
	d := dispatcher.NewMetricsDispatcher[int, string](base, registry)

	_, err = d.Dispatch(stream.Just(1), nil, nil)
	require.ErrorIs(t, err, dispatcher.ErrNoBranches)

	body := scrape(t, registry)
	require.Contains(t, body, `dispatch_setup_total{status="error"} 1`)
}

func TestMetricsDispatcherRecordsErrorTerminal(t *testing.T) {
	registry := metrics.NewRegistry()
	base := newDispatcher(t)
	d := dispatcher.NewMetricsDispatcher[int, string](base, registry)

	branches := evenBigBranches()
	branches[0].Then = func(int) (string, error) { return "", context.DeadlineExceeded }

	out, err := d.Dispatch(stream.Just(2), branches, nil)
	require.NoError(t, err)

	rec := new(recorder)
	out.Subscribe(context.Background(), rec.observer())
	require.Error(t, rec.err)

	body := scrape(t, registry)
	require.Contains(t, body, `dispatch_terminal_total{signal="error"} 1`)
	require.Contains(t, body, `dispatch_branch_events_total{branch="even",status="error"} 1`)
}
