package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOrderMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)

	m.IncTransition("pending", "processing")
	m.IncTransition("pending", "processing")
	m.IncConfirmation("webhook", "confirmed")
	m.IncConfirmation("verify", "duplicate")
	m.IncNotification("shipped", "sent")
	m.IncWebhook("", "ignored")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.transitions.WithLabelValues("pending", "processing")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.confirmations.WithLabelValues("webhook", "confirmed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.confirmations.WithLabelValues("verify", "duplicate")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.notifications.WithLabelValues("shipped", "sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.webhooks.WithLabelValues("unknown", "ignored")))
}

func TestOrderMetrics_Gateway(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)

	StartTimer().ObserveGateway(m, "verify")
	m.ObserveGateway("initialize", 20*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.gateway))
}

func TestOrderMetrics_NilSafe(t *testing.T) {
	var m *OrderMetrics
	assert.NotPanics(t, func() {
		m.IncTransition("a", "b")
		m.IncConfirmation("a", "b")
		m.IncNotification("a", "b")
		m.IncWebhook("a", "b")
		m.ObserveGateway("a", time.Second)
	})

	unregistered := NewOrderMetrics(nil)
	assert.NotPanics(t, func() { unregistered.IncTransition("a", "b") })
}

func TestTimer_Duration(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), time.Millisecond)
}
