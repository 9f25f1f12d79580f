package types

// MetricsCollector receives operational metrics from the library.
//
// Implementations must be safe for concurrent use. A no-op implementation is
// used when no collector is configured, so instrumentation call sites never
// need nil checks.
type MetricsCollector interface {
	// RecordCollective records one completed collective operation on a
	// communicator: its kind ("gather", "bcast", "reduce", "allreduce",
	// "split"), the payload size in bytes and the wall-clock duration in
	// seconds.
	RecordCollective(op string, bytes int, seconds float64)

	// RecordSerialFallback counts a fall back to the single-process
	// communicator because no messaging runtime was available.
	RecordSerialFallback()

	// SetWorldSize records the total number of processes.
	SetWorldSize(n int)

	// SetPoolCount records the number of pools the world was divided into.
	SetPoolCount(n int)

	// SetLocalWorkCount records the number of spin/k-point tuples assigned
	// to the calling process's pool.
	SetLocalWorkCount(n int)
}
