package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/chrinide/mbxas/types"
)

func TestNopMetrics(t *testing.T) {
	var collector types.MetricsCollector = NewNop()

	require.NotPanics(t, func() {
		collector.RecordCollective("gather", 128, 0.001)
		collector.RecordSerialFallback()
		collector.SetWorldSize(10)
		collector.SetPoolCount(3)
		collector.SetLocalWorkCount(4)
	})
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewPrometheus(reg, "mbxas_test")

	collector.RecordCollective("allreduce", 80, 0.002)
	collector.RecordCollective("allreduce", 80, 0.003)
	collector.SetWorldSize(4)
	collector.SetPoolCount(2)
	collector.SetLocalWorkCount(5)
	collector.RecordSerialFallback()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["mbxas_test_comm_collective_ops_total"])
	require.True(t, names["mbxas_test_comm_serial_fallbacks_total"])
	require.True(t, names["mbxas_test_topology_world_size"])
	require.True(t, names["mbxas_test_topology_pool_count"])
	require.True(t, names["mbxas_test_work_local_tuples"])
}
