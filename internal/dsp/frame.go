// SPDX-License-Identifier: MIT
/*
Package dsp implements the per-block feature-extraction pipeline:
a reusable FrameBuffer that marshals one channel of raw capture data
into the algorithms' native float64 representation, a small set of
built-in algorithms (RMS, peak, spectral centroid, band energies),
and an Invoker that validates frames and stamps results.

Everything here runs inside the real-time audio callback, so the
package pre-allocates all working storage at construction time and
performs no allocation per block (the bands vector copy excepted,
see bands.Analyze).
*/
package dsp

// FrameBuffer is a fixed-capacity scratch buffer that presents one
// channel of one rendering quantum as a float64 slice. It borrows the
// raw capture buffer for the duration of a single load; the converted
// samples live in storage reused across calls.
type FrameBuffer struct {
	samples []float64
	loaded  bool
}

// NewFrameBuffer creates a FrameBuffer for the given block size.
func NewFrameBuffer(blockSize int) *FrameBuffer {
	return &FrameBuffer{samples: make([]float64, blockSize)}
}

// LoadChannel deinterleaves the given channel out of a raw capture
// buffer into the frame's scratch storage. stride is the number of
// interleaved channels in raw. Short raw buffers zero-fill the tail.
// Called once per rendering quantum; never allocates.
func (b *FrameBuffer) LoadChannel(raw []float32, channel, stride int) {
	if stride < 1 {
		stride = 1
	}
	for i := range b.samples {
		idx := i*stride + channel
		if idx < len(raw) {
			b.samples[i] = float64(raw[idx])
		} else {
			b.samples[i] = 0
		}
	}
	b.loaded = len(raw) > 0
}

// Load copies an already-mono float64 frame into the scratch storage.
// Used by tests and non-interleaved sources.
func (b *FrameBuffer) Load(frame []float64) {
	n := copy(b.samples, frame)
	for i := n; i < len(b.samples); i++ {
		b.samples[i] = 0
	}
	b.loaded = len(frame) > 0
}

// Samples exposes the converted frame. The returned slice is the
// frame's own storage; callers must not retain it across quanta.
func (b *FrameBuffer) Samples() []float64 {
	return b.samples
}

// Len returns the frame's block size.
func (b *FrameBuffer) Len() int {
	return len(b.samples)
}

// Loaded reports whether the buffer holds data from a non-empty load.
func (b *FrameBuffer) Loaded() bool {
	return b.loaded
}
