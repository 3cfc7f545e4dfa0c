package metrics

import coremetrics "github.com/fjtyk95/bankoptimize/core/metrics"

// MultiSink fans run results out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordRun(res coremetrics.RunResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(res); err != nil {
			return err
		}
	}
	return nil
}
