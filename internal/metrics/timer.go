package metrics

import "time"

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveGateway reports the elapsed time against the gateway histogram.
func (t *Timer) ObserveGateway(m *OrderMetrics, operation string) {
	m.ObserveGateway(operation, t.Duration())
}
