package metrics

import "github.com/prometheus/client_golang/prometheus"

// HoneypotMetrics exposes counters/histograms for the engagement pipeline.
type HoneypotMetrics struct {
	inboundTotal    *prometheus.CounterVec
	verdictTotal    *prometheus.CounterVec
	turnsTotal      prometheus.Counter
	intelItemsTotal *prometheus.CounterVec
	completedTotal  *prometheus.CounterVec
	deliveryTotal   *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
}

func NewHoneypotMetrics(reg prometheus.Registerer) *HoneypotMetrics {
	m := &HoneypotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound webhook messages",
		}, []string{"status"}),
		verdictTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "detect",
			Name:      "verdict_total",
			Help:      "Scam detection verdicts",
		}, []string{"verdict"}),
		turnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "engage",
			Name:      "turns_total",
			Help:      "Total agent turns generated",
		}),
		intelItemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "intel",
			Name:      "items_total",
			Help:      "Intelligence items extracted, by kind",
		}, []string{"kind"}),
		completedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "engage",
			Name:      "completed_total",
			Help:      "Completed engagements, by stop reason",
		}, []string{"reason"}),
		deliveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "delivery",
			Name:      "callbacks_total",
			Help:      "Final report delivery outcomes",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "honeypot",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of webhook message processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.inboundTotal, m.verdictTotal, m.turnsTotal, m.intelItemsTotal,
		m.completedTotal, m.deliveryTotal, m.webhookLatency,
	)
	return m
}

func (m *HoneypotMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *HoneypotMetrics) ObserveVerdict(isScam bool) {
	if m == nil {
		return
	}
	verdict := "clean"
	if isScam {
		verdict = "scam"
	}
	m.verdictTotal.WithLabelValues(verdict).Inc()
}

func (m *HoneypotMetrics) ObserveTurn() {
	if m == nil {
		return
	}
	m.turnsTotal.Inc()
}

func (m *HoneypotMetrics) ObserveIntel(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.intelItemsTotal.WithLabelValues(kind).Add(float64(count))
}

func (m *HoneypotMetrics) ObserveCompleted(reason string) {
	if m == nil {
		return
	}
	m.completedTotal.WithLabelValues(reason).Inc()
}

func (m *HoneypotMetrics) ObserveDelivery(status string) {
	if m == nil {
		return
	}
	m.deliveryTotal.WithLabelValues(status).Inc()
}

func (m *HoneypotMetrics) ObserveWebhookLatency(state string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(state).Observe(seconds)
}
