package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRPCMetricsObserve(t *testing.T) {
	m := RPC()
	require.Same(t, m, RPC())

	m.Observe("ubi_claim", 0, "", time.Millisecond)
	m.Observe("ubi_claim", -32010, "AlreadyClaimed", time.Millisecond)
	m.Observe("", -32602, "", time.Millisecond)

	require.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("ubi_claim", "success")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("ubi_claim", "error")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.rejections.WithLabelValues("ubi_claim", "AlreadyClaimed")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues("unknown", "-32602")))

	m.RecordThrottle("")
	require.Equal(t, float64(1), testutil.ToFloat64(m.throttles.WithLabelValues("unspecified")))

	var nilMetrics *RPCMetrics
	nilMetrics.Observe("x", 0, "", 0)
	nilMetrics.RecordThrottle("x")
}

func TestEventMetricsRecord(t *testing.T) {
	m := Events()
	m.Record("ubi.test.event")
	m.Record("  ")
	require.Equal(t, float64(1), testutil.ToFloat64(m.emitted.WithLabelValues("ubi.test.event")))
	require.GreaterOrEqual(t, testutil.ToFloat64(m.emitted.WithLabelValues("unknown")), float64(1))

	m.Emit(typedEvent("ubi.test.delivered"))
	m.Emit(nil)
	require.Equal(t, float64(1), testutil.ToFloat64(m.emitted.WithLabelValues("ubi.test.delivered")))
}

type typedEvent string

func (e typedEvent) EventType() string { return string(e) }
