package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	PostsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "posts_created_total",
			Help: "Total number of posts created, shares included",
		},
	)

	CommentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comments_total",
			Help: "Total number of comments added",
		},
	)

	StoriesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stories_created_total",
			Help: "Total number of stories created",
		},
	)

	StoryViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "story_views_total",
			Help: "Total number of distinct story views",
		},
	)

	EngagementTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_toggles_total",
			Help: "Like and save changes by entity and resulting state",
		},
		[]string{"entity", "action", "state"},
	)

	QuizAnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Checked quiz answers by kind and correctness",
		},
		[]string{"kind", "correct"},
	)

	DegradedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "degraded_requests_total",
			Help: "Requests served without the store, by route",
		},
		[]string{"route"},
	)

	ResponseCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)

	StoriesExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stories_expired_total",
			Help: "Total number of stories expired by worker",
		},
	)

	WorkerLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worker_latency_seconds",
			Help:    "Worker execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Toggle records an engagement change; on reports the resulting membership.
func Toggle(entity, action string, on bool) {
	EngagementTogglesTotal.WithLabelValues(entity, action, boolLabel(on)).Inc()
}

func QuizAnswer(kind string, correct bool) {
	QuizAnswersTotal.WithLabelValues(kind, boolLabel(correct)).Inc()
}
