// Package metrics holds the Prometheus instruments used across the service.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanizio/formaction/internal/action"
)

var (
	ActionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_action_total",
			Help: "Action invocations by outcome (success, validation_failure, internal_failure).",
		}, []string{"action", "outcome"})

	ActionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "form_action_duration_seconds",
			Help:    "Wall time of action invocations, validation included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"})

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_store_errors_total",
			Help: "User store failures, excluding not-found and duplicate email.",
		}, []string{"driver"})
)

func init() {
	prometheus.MustRegister(
		ActionTotal,
		ActionDuration,
		StoreErrorsTotal,
	)
}

// ActionObserver feeds ActionTotal and ActionDuration.  Pass it to
// action.WithObserver.
type ActionObserver struct{}

var _ action.Observer = ActionObserver{}

// Observe implements action.Observer.
func (ActionObserver) Observe(name string, kind action.Kind, elapsed time.Duration) {
	ActionTotal.WithLabelValues(name, kind.String()).Inc()
	ActionDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// StoreErrorHook returns a callback for user.Instrument that counts errors
// for driver.
func StoreErrorHook(driver string) func(error) {
	c := StoreErrorsTotal.WithLabelValues(driver)
	return func(error) { c.Inc() }
}
