package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/gridshift/hpwhctl/core/metrics"
)

// PromSink records plan results in Prometheus metrics.
type PromSink struct {
	plans    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cost     *prometheus.GaugeVec
}

// NewPromSink registers planner metrics on the provided Prometheus
// registerer. If reg is nil, the default registerer is used. If the
// collectors are already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_runs_total",
		Help: "Total number of scheduling runs",
	}, []string{"algorithm", "converged"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_solve_seconds",
		Help:    "Time spent computing one schedule",
		Buckets: prometheus.DefBuckets,
	}, []string{"algorithm"})
	cost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_schedule_cost",
		Help: "Total electrical cost of the most recent schedule",
	}, []string{"algorithm"})

	if err := reg.Register(plans); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			plans = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(cost); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cost = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{plans: plans, duration: duration, cost: cost}, nil
}

// RecordPlan implements the core metrics Sink.
func (s *PromSink) RecordPlan(res coremetrics.PlanResult) error {
	s.plans.WithLabelValues(res.Algorithm, strconv.FormatBool(res.Converged)).Inc()
	s.duration.WithLabelValues(res.Algorithm).Observe(res.SolveTime.Seconds())
	s.cost.WithLabelValues(res.Algorithm).Set(res.TotalCost)
	return nil
}
