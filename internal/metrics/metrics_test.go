package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterRequests.WithLabelValues("GET", "302").Inc()
	m.CounterRequests.WithLabelValues("GET", "302").Inc()
	m.CounterGuardRedirects.WithLabelValues("unauthenticated").Inc()
	m.GaugeClients.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "302")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterGuardRedirects.WithLabelValues("unauthenticated")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.GaugeClients))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "sensorwatch_web_requests_total")
	assert.Contains(t, names, "sensorwatch_web_clients")
}
