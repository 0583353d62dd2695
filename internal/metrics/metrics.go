// Package metrics exposes Prometheus counters for the chat triage agent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "boss_responder"

// Recorder holds every metric the agent reports. A nil *Recorder is valid and records nothing.
type Recorder struct {
	iterations     *prometheus.CounterVec
	phaseFailures  *prometheus.CounterVec
	verdicts       *prometheus.CounterVec
	messages       *prometheus.CounterVec
	evaluationGaps *prometheus.CounterVec
	motionDuration prometheus.Histogram
}

// New registers the agent metrics on reg.
func New(reg prometheus.Registerer) *Recorder {
	auto := promauto.With(reg)

	return &Recorder{
		iterations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Loop iterations by outcome.",
		}, []string{"outcome"}),

		phaseFailures: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_failures_total",
			Help:      "Failed iterations by the phase that failed and the failure kind.",
		}, []string{"phase", "kind"}),

		verdicts: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Qualification verdicts by matched rule key and result.",
		}, []string{"rule", "result"}),

		messages: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Chat messages sent by kind (greeting or reply).",
		}, []string{"kind"}),

		evaluationGaps: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_gaps_total",
			Help:      "Candidate panels that were missing and replaced by defaults.",
		}, []string{"what"}),

		motionDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pointer_motion_seconds",
			Help:      "Wall time of simulated pointer movements.",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.75, 1},
		}),
	}
}

func (r *Recorder) Iteration(outcome string) {
	if r == nil {
		return
	}
	r.iterations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) PhaseFailure(phase, kind string) {
	if r == nil {
		return
	}
	r.phaseFailures.WithLabelValues(phase, kind).Inc()
}

// Verdict counts a qualification result. An empty rule is reported as "none".
func (r *Recorder) Verdict(rule string, qualified bool) {
	if r == nil {
		return
	}
	if rule == "" {
		rule = "none"
	}
	result := "rejected"
	if qualified {
		result = "qualified"
	}
	r.verdicts.WithLabelValues(rule, result).Inc()
}

func (r *Recorder) MessageSent(kind string) {
	if r == nil {
		return
	}
	r.messages.WithLabelValues(kind).Inc()
}

func (r *Recorder) EvaluationGap(what string) {
	if r == nil {
		return
	}
	r.evaluationGaps.WithLabelValues(what).Inc()
}

// ObserveMotion matches the motion.WithObserver callback signature.
func (r *Recorder) ObserveMotion(d time.Duration) {
	if r == nil {
		return
	}
	r.motionDuration.Observe(d.Seconds())
}
