package scene

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sceneRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyteller_scene_requests_total",
			Help: "Total number of scene generation requests.",
		},
		[]string{"provider", "status"},
	)
	sceneRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyteller_scene_request_duration_seconds",
			Help:    "Histogram of scene generation request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	scenePromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyteller_scene_prompt_tokens",
			Help:    "Histogram of prompt token counts per scene generation.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"provider"},
	)
	sceneCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyteller_scene_completion_tokens",
			Help:    "Histogram of completion token counts per scene generation.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"provider"},
	)
)

// observeUsage records token histograms for a finished generation call.
func observeUsage(provider string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		scenePromptTokens.With(prometheus.Labels{"provider": provider}).Observe(float64(promptTokens))
	}
	if completionTokens > 0 {
		sceneCompletionTokens.With(prometheus.Labels{"provider": provider}).Observe(float64(completionTokens))
	}
}
