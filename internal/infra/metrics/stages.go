package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(stageLatencySeconds, speechRetriesTotal, silentNarrationTotal) }

var stageLatencySeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "shorts_stage_latency_seconds",
		Help:    "Per-stage latency distribution.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	},
	[]string{"stage", "success"}, // stage: 'speech', 'media', 'upload'
)

var speechRetriesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "shorts_speech_retries_total",
		Help: "Number of speech synthesis attempts that needed the retry.",
	},
)

var silentNarrationTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "shorts_silent_narration_total",
		Help: "Rendered outputs whose narration track decoded as silence.",
	},
)

func ObserveStage(stage string, seconds float64, success bool) {
	stageLatencySeconds.WithLabelValues(norm(stage), strconv.FormatBool(success)).Observe(seconds)
}

func IncSpeechRetry()     { speechRetriesTotal.Inc() }
func IncSilentNarration() { silentNarrationTotal.Inc() }
