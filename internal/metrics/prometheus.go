package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tool metrics
	ToolDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plutus_tool_dispatch_total",
			Help: "Total number of tool dispatches",
		},
		[]string{"tool", "status"}, // status: ok|error
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plutus_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"tool"},
	)

	// LLM metrics
	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plutus_llm_tokens_total",
			Help: "Total tokens exchanged with the language model",
		},
		[]string{"provider", "kind"}, // kind: input|output
	)

	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plutus_llm_calls_total",
			Help: "Total number of language model calls",
		},
		[]string{"provider", "model", "status"}, // status: success|error
	)

	// Conversation metrics
	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plutus_turn_duration_seconds",
			Help:    "Full user-turn duration in seconds, including tool dispatches",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	TurnsAborted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plutus_turns_aborted_total",
			Help: "Total number of aborted conversation turns",
		},
		[]string{"reason"}, // reason: budget|transport|cancelled
	)

	// Analysis metrics
	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plutus_recommendations_total",
			Help: "Total recommendations issued by action",
		},
		[]string{"action"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(ToolDispatches)
	prometheus.MustRegister(ToolLatency)
	prometheus.MustRegister(LLMTokens)
	prometheus.MustRegister(LLMCalls)
	prometheus.MustRegister(TurnDuration)
	prometheus.MustRegister(TurnsAborted)
	prometheus.MustRegister(RecommendationsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordToolDispatch records one tool dispatch outcome
func RecordToolDispatch(tool string, duration time.Duration, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	ToolDispatches.WithLabelValues(tool, status).Inc()
	ToolLatency.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordLLMCall records one model call with token usage
func RecordLLMCall(provider, model string, inputTokens, outputTokens int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LLMCalls.WithLabelValues(provider, model, status).Inc()
	if inputTokens > 0 {
		LLMTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}
