// Package metrics exposes Prometheus collectors for the activity service.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/celerix-dev/mergington-activities/internal/registry"
)

const namespace = "activities"

// Operation names used as the "operation" label.
const (
	OpSignup     = "signup"
	OpUnregister = "unregister"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// unknownActivity replaces the activity label for lookups that missed, so
// arbitrary path values cannot blow up label cardinality.
const unknownActivity = "unknown"

// Metrics holds the service collectors.
type Metrics struct {
	enrollments     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the service collectors on reg. src may be nil, in which case
// no occupancy gauges are exported.
func New(reg prometheus.Registerer, src registry.OccupancySource) *Metrics {
	m := &Metrics{
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollment_operations_total",
			Help:      "Signup and unregister attempts by activity and outcome.",
		}, []string{"operation", "activity", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.enrollments, m.requestDuration)
	if src != nil {
		reg.MustRegister(newOccupancyCollector(src))
	}
	return m
}

// ObserveEnrollment counts one signup or unregister attempt.
func (m *Metrics) ObserveEnrollment(op, activity string, err error) {
	outcome := outcomeOf(err)
	if outcome == OutcomeNotFound {
		activity = unknownActivity
	}
	m.enrollments.WithLabelValues(op, activity, outcome).Inc()
}

// ObserveRequest records the latency of one HTTP request.
// route should be the matched route template, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, registry.ErrActivityNotFound):
		return OutcomeNotFound
	case errors.Is(err, registry.ErrAlreadySignedUp), errors.Is(err, registry.ErrNotSignedUp):
		return OutcomeConflict
	}
	return OutcomeError
}

// occupancyCollector reads enrolment counts at scrape time.
type occupancyCollector struct {
	src          registry.OccupancySource
	participants *prometheus.Desc
	capacity     *prometheus.Desc
}

func newOccupancyCollector(src registry.OccupancySource) *occupancyCollector {
	return &occupancyCollector{
		src: src,
		participants: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "participants"),
			"Current number of participants signed up for the activity.",
			[]string{"activity"}, nil,
		),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "max_participants"),
			"Advertised capacity of the activity. Not enforced on signup.",
			[]string{"activity"}, nil,
		),
	}
}

func (c *occupancyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.participants
	ch <- c.capacity
}

func (c *occupancyCollector) Collect(ch chan<- prometheus.Metric) {
	for _, o := range c.src.Occupancy() {
		ch <- prometheus.MustNewConstMetric(c.participants, prometheus.GaugeValue, float64(o.Enrolled), o.Name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(o.Capacity), o.Name)
	}
}
