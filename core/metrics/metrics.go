package metrics

import "time"

// PlanResult captures one scheduling run for observability purposes.
type PlanResult struct {
	PlanID    string
	Algorithm string
	Converged bool
	TotalCost float64
	SolveTime time.Duration
	Horizon   int
	PlannedAt time.Time
}

// Sink records plan results.
type Sink interface {
	RecordPlan(res PlanResult) error
}

// NopSink discards all records.
type NopSink struct{}

// RecordPlan implements Sink.
func (NopSink) RecordPlan(PlanResult) error { return nil }
