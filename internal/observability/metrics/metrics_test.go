package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHoneypotMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHoneypotMetrics(reg)
	m.ObserveInbound("accepted")
	m.ObserveVerdict(true)
	m.ObserveVerdict(false)
	m.ObserveTurn()
	m.ObserveIntel("upi_ids", 2)
	m.ObserveIntel("bank_accounts", 0)
	m.ObserveCompleted("max_turns")
	m.ObserveDelivery("delivered")
	m.ObserveWebhookLatency("ENGAGING", 0.25)
}

func TestHoneypotMetricsDefaultRegistry(t *testing.T) {
	m := NewHoneypotMetrics(nil)
	m.ObserveInbound("accepted")
}

func TestHoneypotMetricsNilSafe(t *testing.T) {
	var m *HoneypotMetrics
	m.ObserveInbound("accepted")
	m.ObserveVerdict(true)
	m.ObserveTurn()
	m.ObserveIntel("upi_ids", 1)
	m.ObserveCompleted("max_turns")
	m.ObserveDelivery("failed")
	m.ObserveWebhookLatency("PENDING", 0.1)
}
