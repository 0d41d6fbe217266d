package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_sessions_started_total",
			Help: "Total number of sessions started",
		},
		[]string{"locale"},
	)

	// SessionsFinished counts terminal transitions by final status.
	SessionsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_sessions_finished_total",
			Help: "Total number of sessions that reached a terminal status",
		},
		[]string{"status"},
	)

	AnswersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_answers_submitted_total",
			Help: "Total number of accepted answers",
		},
		[]string{"result"},
	)

	SelectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trivia_selection_duration_seconds",
			Help:    "Time spent selecting the questions of a phase",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_sessions_evicted_total",
			Help: "Total number of sessions removed by the sweeper",
		},
	)
)

// Answer result labels.
const (
	ResultCorrect = "correct"
	ResultWrong   = "wrong"
	ResultTimeout = "timeout"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
