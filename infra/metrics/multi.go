package metrics

import coremetrics "github.com/gridshift/hpwhctl/core/metrics"

// MultiSink fans plan results out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordPlan(res coremetrics.PlanResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(res); err != nil {
			return err
		}
	}
	return nil
}
