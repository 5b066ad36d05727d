package metrics

import (
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	emailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_total",
			Help: "Processed recipients per group and outcome (sent/cooldown/blocked/duplicate/error).",
		},
		[]string{"group", "outcome"},
	)

	smtpSendLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smtp_send_latency_ms",
			Help:    "SMTP delivery latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"success"},
	)

	extractedEmails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extracted_emails_total",
			Help: "Addresses harvested from uploaded documents per file kind.",
		},
		[]string{"kind"},
	)

	extractionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_errors_total",
			Help: "Document parse failures per file kind.",
		},
		[]string{"kind"},
	)

	blocklistSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "blocklist_size",
			Help: "Current number of blocked addresses.",
		},
	)

	campaignsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_total",
			Help: "Finished campaigns by terminal state (done/cancelled/failed).",
		},
		[]string{"state"},
	)

	workerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Background tasks waiting in the worker pool queue.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			emailsTotal, smtpSendLatencyMs,
			extractedEmails, extractionErrors,
			blocklistSize, campaignsTotal, workerQueueDepth,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncEmail(group, outcome string) {
	emailsTotal.WithLabelValues(norm(group), norm(outcome)).Inc()
}

func ObserveSMTPSend(latencyMs int, success bool) {
	smtpSendLatencyMs.WithLabelValues(strconv.FormatBool(success)).Observe(float64(latencyMs))
}

func AddExtracted(kind string, n int) {
	extractedEmails.WithLabelValues(norm(kind)).Add(float64(n))
}

func IncExtractionError(kind string) {
	extractionErrors.WithLabelValues(norm(kind)).Inc()
}

func SetBlocklistSize(n int) {
	blocklistSize.Set(float64(n))
}

func IncCampaign(state string) {
	campaignsTotal.WithLabelValues(norm(state)).Inc()
}

func SetWorkerQueueDepth(n int) {
	workerQueueDepth.Set(float64(n))
}
