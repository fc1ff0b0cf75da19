// SPDX-License-Identifier: MIT
/*
Package stream implements the per-quantum processing callback and the
handoff of results to the controlling context.

Two execution contexts cooperate here. ProcessQuantum runs on the
real-time capture thread at a fixed cadence and must finish inside the
deadline implied by block size and sample rate (about 2.9ms for 128
frames at 44.1kHz); it uses pre-allocated buffers only and never
blocks. The Dispatcher goroutine runs in the controlling context and
drains the bounded result queue toward the sink. The queue is the only
bridge between the two: posts are non-blocking and drop the oldest
queued result on overflow, so a slow consumer can never stall capture.
*/
package stream

import (
	"errors"
	"sync"
	"sync/atomic"

	"featex/internal/dsp"
	applog "featex/internal/log"
)

// ProcessorConfig carries the capture-side parameters the processor
// needs to slice channels out of the raw interleaved buffer.
type ProcessorConfig struct {
	Channels       int     // Interleaved channels in the raw capture buffer.
	CaptureChannel int     // Channel to analyze (0-based).
	QueueDepth     int     // Result queue depth in blocks.
	GateEnabled    bool    // Skip analysis on near-silent blocks.
	GateThreshold  float64 // Peak-amplitude gate threshold, 0.0-1.0.
}

// Processor executes the analysis once per rendering quantum and
// posts results toward the controlling context. It is Idle until the
// graph activates it; quanta arriving while Idle are ignored.
type Processor struct {
	invoker *dsp.Invoker
	frame   *dsp.FrameBuffer
	cfg     ProcessorConfig

	active  atomic.Bool
	results chan dsp.FeatureResult

	// Last-result snapshot, the processor's "output channel". The
	// writer uses TryLock so the real-time thread can never wait on
	// a reader.
	lastMu     sync.Mutex
	lastResult dsp.FeatureResult
	hasLast    bool

	skipped atomic.Uint64 // blocks rejected as invalid input
	dropped atomic.Uint64 // results evicted from a full queue
	gated   atomic.Uint64 // blocks suppressed by the silence gate
}

// NewProcessor creates an Idle processor around a validated invoker.
func NewProcessor(invoker *dsp.Invoker, cfg ProcessorConfig) *Processor {
	if cfg.Channels < 1 {
		cfg.Channels = 1
	}
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = 1
	}
	return &Processor{
		invoker: invoker,
		frame:   dsp.NewFrameBuffer(invoker.BlockSize()),
		cfg:     cfg,
		results: make(chan dsp.FeatureResult, cfg.QueueDepth),
	}
}

// Activate transitions Idle -> Active. Called by the graph when it
// enters Running.
func (p *Processor) Activate() {
	p.active.Store(true)
}

// Deactivate transitions Active -> Idle. Called by the graph on stop
// and by the processor itself on unrecoverable errors. Quanta already
// in flight complete; no further quanta are processed.
func (p *Processor) Deactivate() {
	p.active.Store(false)
}

// Active reports whether the processor is accepting quanta.
func (p *Processor) Active() bool {
	return p.active.Load()
}

// Results exposes the bounded result queue drained by the Dispatcher.
func (p *Processor) Results() <-chan dsp.FeatureResult {
	return p.results
}

// ProcessQuantum handles one rendering quantum of raw interleaved
// capture data. The returned signal is false only on unrecoverable
// errors, which also transition the processor back to Idle; invalid
// per-block input is skipped and the stream continues.
//
// Performance critical: no allocations, no blocking operations.
func (p *Processor) ProcessQuantum(in []float32) bool {
	if !p.active.Load() {
		return true
	}

	if p.cfg.GateEnabled && p.belowGate(in) {
		p.gated.Add(1)
		return true
	}

	p.frame.LoadChannel(in, p.cfg.CaptureChannel, p.cfg.Channels)

	res, err := p.invoker.Invoke(p.frame)
	if err != nil {
		if errors.Is(err, dsp.ErrInvalidInput) {
			p.skipped.Add(1)
			applog.Warnf("stream: skipping block: %v", err)
			return true
		}
		applog.Errorf("stream: unrecoverable processing error, halting: %v", err)
		p.Deactivate()
		return false
	}

	// Mirror the result into the snapshot unless a reader holds it
	// right now; the snapshot is best-effort, the queue is not.
	if p.lastMu.TryLock() {
		p.lastResult = res
		p.hasLast = true
		p.lastMu.Unlock()
	}

	p.post(res)
	return true
}

// post enqueues without blocking, evicting the oldest queued result
// when full so the queue always converges on fresh data.
func (p *Processor) post(res dsp.FeatureResult) {
	select {
	case p.results <- res:
		return
	default:
	}
	select {
	case <-p.results:
		p.dropped.Add(1)
	default:
	}
	select {
	case p.results <- res:
	default:
		p.dropped.Add(1)
	}
}

// belowGate scans the selected channel for the peak amplitude and
// reports whether it stays under the gate threshold.
func (p *Processor) belowGate(in []float32) bool {
	threshold := float32(p.cfg.GateThreshold)
	for i := p.cfg.CaptureChannel; i < len(in); i += p.cfg.Channels {
		s := in[i]
		if s < 0 {
			s = -s
		}
		if s > threshold {
			return false
		}
	}
	return true
}

// Last returns the most recent successful result, if any.
func (p *Processor) Last() (dsp.FeatureResult, bool) {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()
	return p.lastResult, p.hasLast
}

// Skipped returns the count of blocks rejected as invalid input.
func (p *Processor) Skipped() uint64 {
	return p.skipped.Load()
}

// Dropped returns the count of results evicted from a full queue.
func (p *Processor) Dropped() uint64 {
	return p.dropped.Load()
}

// Gated returns the count of blocks suppressed by the silence gate.
func (p *Processor) Gated() uint64 {
	return p.gated.Load()
}
