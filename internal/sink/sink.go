// SPDX-License-Identifier: MIT
/*
Package sink delivers computed FeatureResults to their consumers.
Sinks receive results pushed asynchronously from the stream
dispatcher, in submission order; they never pull. Implementations
must be safe for use from the dispatcher goroutine concurrently with
Close from the controlling context.
*/
package sink

import (
	"featex/internal/dsp"
	applog "featex/internal/log"
)

// Sink consumes FeatureResult values. Deliver must not block
// indefinitely; a slow consumer is expected to drop or coalesce.
type Sink interface {
	Deliver(res dsp.FeatureResult) error
	Close() error
}

// LogSink writes each result to the engine log. Used for debugging;
// it never fails a delivery.
type LogSink struct{}

// NewLogSink creates a LogSink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Deliver logs the result at debug level.
func (s *LogSink) Deliver(res dsp.FeatureResult) error {
	if res.Vector != nil {
		applog.Debugf("result #%d %s value=%.6f vector=%v", res.Seq, res.Algorithm, res.Value, res.Vector)
	} else {
		applog.Debugf("result #%d %s value=%.6f", res.Seq, res.Algorithm, res.Value)
	}
	return nil
}

// Close is a no-op.
func (s *LogSink) Close() error {
	return nil
}

// Multi fans a delivery out to several sinks. A failing member is
// logged and skipped; delivery to the others continues.
type Multi struct {
	sinks []Sink
}

// NewMulti combines sinks into one. Nil members are dropped.
func NewMulti(sinks ...Sink) *Multi {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Multi{sinks: out}
}

// Deliver forwards the result to every member sink.
func (m *Multi) Deliver(res dsp.FeatureResult) error {
	for _, s := range m.sinks {
		if err := s.Deliver(res); err != nil {
			applog.Warnf("sink: delivery failed: %v", err)
		}
	}
	return nil
}

// Close closes every member sink, returning the first error.
func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*Multi)(nil)
)
