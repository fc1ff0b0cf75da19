// SPDX-License-Identifier: MIT
package stream

import (
	"sync"
	"sync/atomic"

	"featex/internal/dsp"
	applog "featex/internal/log"
	"featex/internal/sink"
)

// Dispatcher drains the processor's result queue in the controlling
// context and forwards each result to the sink. Delivery is gated on
// the graph still being in its Running state; at most one in-flight
// result can slip through after a stop, and anything queued beyond
// that is discarded.
type Dispatcher struct {
	results <-chan dsp.FeatureResult
	snk     sink.Sink
	running func() bool

	mu       sync.Mutex
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	delivered atomic.Uint64
	discarded atomic.Uint64
}

// NewDispatcher wires the result queue to a sink. running reports
// whether the owning graph is currently in its Running state; a nil
// func delivers unconditionally.
func NewDispatcher(results <-chan dsp.FeatureResult, snk sink.Sink, running func() bool) *Dispatcher {
	return &Dispatcher{
		results: results,
		snk:     snk,
		running: running,
	}
}

// Start launches the dispatch goroutine. Safe to call repeatedly;
// subsequent calls while running are no-ops.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.doneChan != nil {
		d.mu.Unlock()
		return
	}
	d.doneChan = make(chan struct{})
	d.stopOnce = sync.Once{}
	doneChan := d.doneChan
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case res := <-d.results:
				d.forward(res)
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the dispatch goroutine and waits for it to exit.
// Results still queued at that point are dropped, not delivered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.doneChan == nil {
		d.mu.Unlock()
		return
	}
	d.stopOnce.Do(func() {
		close(d.doneChan)
		d.doneChan = nil
	})
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) forward(res dsp.FeatureResult) {
	if d.running != nil && !d.running() {
		d.discarded.Add(1)
		return
	}
	if err := d.snk.Deliver(res); err != nil {
		applog.Warnf("dispatcher: delivery of result #%d failed: %v", res.Seq, err)
		return
	}
	d.delivered.Add(1)
}

// Delivered returns the count of results handed to the sink.
func (d *Dispatcher) Delivered() uint64 {
	return d.delivered.Load()
}

// Discarded returns the count of results dropped because the graph
// was no longer Running when they surfaced.
func (d *Dispatcher) Discarded() uint64 {
	return d.discarded.Load()
}
