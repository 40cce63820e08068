// Package metrics exposes pagination counters through Prometheus.
//
// A nil *Pagination is valid and records nothing, so callers never need to
// check whether metrics were enabled.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "docpager"

// Pagination holds the collectors updated by paginators and sessions.
type Pagination struct {
	pagesCreated  *prometheus.CounterVec
	nodesDropped  *prometheus.CounterVec
	rowsTruncated prometheus.Counter
	capReached    prometheus.Counter
	refreshes     *prometheus.CounterVec
	refreshTime   prometheus.Histogram
}

// New creates the collectors and registers them on registerer. Registering
// twice on the same registerer reuses the collectors already there.
func New(registerer prometheus.Registerer) (*Pagination, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Pagination{
		pagesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pages_created_total",
				Help:      "Continuation pages created, by page kind.",
			},
			[]string{"kind"},
		),
		nodesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "nodes_dropped_total",
				Help:      "Content nodes left unplaced because the page cap was reached, by page kind.",
			},
			[]string{"kind"},
		),
		rowsTruncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rows_truncated_total",
			Help:      "Line item rows left unplaced because the page cap was reached.",
		}),
		capReached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "page_cap_reached_total",
			Help:      "Refreshes that hit the page cap.",
		}),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "refreshes_total",
				Help:      "Full pagination passes, by result.",
			},
			[]string{"result"}, // success | failed
		),
		refreshTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent in one full pagination pass.",
			Buckets: []float64{
				0.001,
				0.005,
				0.025,
				0.1,
				0.5,
				2,
				10,
			},
		}),
	}

	var err error
	m.pagesCreated, err = register(registerer, m.pagesCreated)
	if err != nil {
		return nil, err
	}
	m.nodesDropped, err = register(registerer, m.nodesDropped)
	if err != nil {
		return nil, err
	}
	m.rowsTruncated, err = register(registerer, m.rowsTruncated)
	if err != nil {
		return nil, err
	}
	m.capReached, err = register(registerer, m.capReached)
	if err != nil {
		return nil, err
	}
	m.refreshes, err = register(registerer, m.refreshes)
	if err != nil {
		return nil, err
	}
	m.refreshTime, err = register(registerer, m.refreshTime)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// PageCreated counts one continuation page of kind.
func (m *Pagination) PageCreated(kind string) {
	if m == nil {
		return
	}
	m.pagesCreated.WithLabelValues(kind).Inc()
}

// NodesDropped counts n nodes of kind that did not fit under the cap.
func (m *Pagination) NodesDropped(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.nodesDropped.WithLabelValues(kind).Add(float64(n))
}

// RowsTruncated counts n line item rows that did not fit under the cap.
func (m *Pagination) RowsTruncated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsTruncated.Add(float64(n))
}

// CapReached counts a refresh that hit the page cap.
func (m *Pagination) CapReached() {
	if m == nil {
		return
	}
	m.capReached.Inc()
}

// ObserveRefresh records the outcome and duration of a full pass.
func (m *Pagination) ObserveRefresh(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.refreshTime.Observe(d.Seconds())
}
