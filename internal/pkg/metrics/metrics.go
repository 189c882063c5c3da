// Package metrics holds the prometheus collectors exported by fieldops.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fieldops"

// Side-log names used as the "log" label.
const (
	LogAudit    = "audit"
	LogActivity = "activity"
	LogFeed     = "feed"
)

var (
	// MutationsTotal counts orchestrator calls by entity type, action and outcome kind.
	MutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Orchestrated mutations by entity type, action and outcome.",
	}, []string{"entity_type", "action", "outcome"})

	// MutationDuration observes end-to-end transaction time.
	MutationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mutation_duration_seconds",
		Help:      "Duration of orchestrated mutations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"entity_type", "action"})

	// SideLogFailures counts swallowed audit, activity and feed write failures.
	SideLogFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_log_failures_total",
		Help:      "Best-effort side log writes that failed and were swallowed.",
	}, []string{"log"})

	// DerivedStatusChanges counts parent status changes computed from children.
	DerivedStatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "derived_status_changes_total",
		Help:      "Parent status changes derived from child mutations.",
	}, []string{"entity_type", "status"})
)

// NewRegistry returns a registry with the fieldops collectors plus the
// standard process and Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	MustRegister(reg)
	return reg
}

// MustRegister registers the fieldops collectors on reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(MutationsTotal, MutationDuration, SideLogFailures, DerivedStatusChanges)
}

// Handler serves the registry in the prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// PoolStat is a point-in-time view of one worker pool.
type PoolStat struct {
	Name    string
	Running int
	Free    int
	Cap     int
	Waiting int
}

var (
	poolRunningDesc = prometheus.NewDesc(namespace+"_worker_pool_running",
		"Goroutines currently running tasks.", []string{"pool"}, nil)
	poolCapacityDesc = prometheus.NewDesc(namespace+"_worker_pool_capacity",
		"Configured pool size.", []string{"pool"}, nil)
	poolWaitingDesc = prometheus.NewDesc(namespace+"_worker_pool_waiting",
		"Submitters blocked waiting for a free worker.", []string{"pool"}, nil)
)

type poolCollector struct {
	stats func() []PoolStat
}

// NewPoolCollector exports the pools returned by stats on every scrape.
func NewPoolCollector(stats func() []PoolStat) prometheus.Collector {
	return &poolCollector{stats: stats}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolRunningDesc
	ch <- poolCapacityDesc
	ch <- poolWaitingDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.stats() {
		ch <- prometheus.MustNewConstMetric(poolRunningDesc, prometheus.GaugeValue, float64(s.Running), s.Name)
		ch <- prometheus.MustNewConstMetric(poolCapacityDesc, prometheus.GaugeValue, float64(s.Cap), s.Name)
		ch <- prometheus.MustNewConstMetric(poolWaitingDesc, prometheus.GaugeValue, float64(s.Waiting), s.Name)
	}
}
