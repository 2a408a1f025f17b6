package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_chat_messages_total",
			Help: "Total chat messages processed",
		},
		[]string{"outcome"},
	)

	MatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentdesk_match_score",
			Help:    "Winning candidate score per chat message",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentdesk_match_duration_seconds",
			Help:    "Answer matching duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_fallbacks_total",
			Help: "Total fallback responses returned",
		},
		[]string{"reason"},
	)

	VariantsGenerated = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentdesk_variants_generated",
			Help:    "Variants produced per generation call",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 10, 12},
		},
		[]string{"kind"},
	)

	QuestionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdesk_questions_created_total",
			Help: "Total questions created",
		},
	)

	QuestionsUpdated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdesk_questions_updated_total",
			Help: "Total questions updated",
		},
	)

	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentdesk_chat_sessions_started_total",
			Help: "Total chat sessions opened",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	AuthIntrospections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_auth_introspections_total",
			Help: "Total identity provider introspection calls",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(ChatMessagesTotal)
	prometheus.MustRegister(MatchScore)
	prometheus.MustRegister(MatchDuration)
	prometheus.MustRegister(FallbacksTotal)
	prometheus.MustRegister(VariantsGenerated)
	prometheus.MustRegister(QuestionsCreated)
	prometheus.MustRegister(QuestionsUpdated)
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(AuthIntrospections)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
