// Package metrics provides the library's metrics collector implementations.
package metrics

import "github.com/chrinide/mbxas/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Used as the default wherever no collector is
// injected.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordCollective discards the collective operation metric.
func (n *NopMetrics) RecordCollective(_ /* op */ string, _ /* bytes */ int, _ /* seconds */ float64) {
	// No-op
}

// RecordSerialFallback discards the fallback counter increment.
func (n *NopMetrics) RecordSerialFallback() {
	// No-op
}

// SetWorldSize discards the world size gauge.
func (n *NopMetrics) SetWorldSize(_ /* n */ int) {
	// No-op
}

// SetPoolCount discards the pool count gauge.
func (n *NopMetrics) SetPoolCount(_ /* n */ int) {
	// No-op
}

// SetLocalWorkCount discards the local work count gauge.
func (n *NopMetrics) SetLocalWorkCount(_ /* n */ int) {
	// No-op
}
