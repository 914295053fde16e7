package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	SessionsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mediqr_sessions_created_total",
		Help: "Total number of sharing sessions created.",
	})
	SessionsValidatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mediqr_sessions_validated_total",
		Help: "Total number of successful QR token validations.",
	})
	SessionConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mediqr_session_conflicts_total",
		Help: "Total number of session creations rejected due to an active session.",
	})
	ActiveSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mediqr_active_sessions_gauge",
		Help: "Current number of active sharing sessions.",
	})
	DocumentsUploadedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mediqr_documents_uploaded_total",
		Help: "Total number of documents uploaded.",
	})
	SummariesGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mediqr_summaries_generated_total",
		Help: "Total number of document summaries generated.",
	})
	SummaryFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mediqr_summary_failures_total",
		Help: "Total number of per-document summarization failures.",
	})
)

// Register registers the custom metrics with the given registerer. It should
// be called once at application startup.
func Register(reg prometheus.Registerer) {
	collectors := []prometheus.Collector{
		SessionsCreatedTotal,
		SessionsValidatedTotal,
		SessionConflictsTotal,
		ActiveSessionsGauge,
		DocumentsUploadedTotal,
		SummariesGeneratedTotal,
		SummaryFailuresTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("failed to register metric")
		}
	}
	log.Info().Msg("prometheus metrics registered")
}
