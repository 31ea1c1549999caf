// Package metrics defines the instrumentation surface used across
// paymcp and a Prometheus-backed implementation of it.
package metrics

import "time"

// Recorder counts payment lifecycle events and observes operation
// latencies. Implementations must be safe for concurrent use.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
