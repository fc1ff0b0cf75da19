// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
	"time"
)

// FeatureResult is the output of one analysis invocation. Ownership
// ends at delivery; the receiving sink is responsible for retention.
type FeatureResult struct {
	Seq       uint64    `json:"seq"`              // Block sequence number, starts at 1.
	Timestamp time.Time `json:"ts"`               // Capture-side invocation time.
	Algorithm string    `json:"algorithm"`        // Producing algorithm name.
	Value     float64   `json:"value"`            // Scalar feature value.
	Vector    []float64 `json:"vector,omitempty"` // Fixed-shape aggregate, nil for scalar algorithms.
}

// Invoker wraps an Algorithm, validating borrowed frames and stamping
// sequence numbers and timestamps onto results. One Invoker belongs to
// exactly one stream processor; Invoke is not safe for concurrent use.
type Invoker struct {
	alg       Algorithm
	blockSize int
	seq       uint64
}

// NewInvoker pairs an algorithm with the graph's block size. A
// mismatch between the two is a configuration error and fails here,
// at construction, never per call.
func NewInvoker(alg Algorithm, blockSize int) (*Invoker, error) {
	if alg == nil {
		return nil, fmt.Errorf("invoker: algorithm must not be nil")
	}
	if alg.BlockSize() != blockSize {
		return nil, fmt.Errorf("invoker %q: %w: algorithm wants %d, graph provides %d",
			alg.Name(), ErrBlockSizeMismatch, alg.BlockSize(), blockSize)
	}
	return &Invoker{alg: alg, blockSize: blockSize}, nil
}

// BlockSize returns the validated block size.
func (iv *Invoker) BlockSize() int {
	return iv.blockSize
}

// AlgorithmName returns the wrapped algorithm's name.
func (iv *Invoker) AlgorithmName() string {
	return iv.alg.Name()
}

// Invoke runs the algorithm over one borrowed frame. Malformed frames
// (empty load, wrong length, non-finite samples) fail with
// ErrInvalidInput; the caller skips the block and keeps streaming.
// The sequence number advances only on success so delivered results
// are densely numbered.
func (iv *Invoker) Invoke(frame *FrameBuffer) (FeatureResult, error) {
	if frame == nil || !frame.Loaded() {
		return FeatureResult{}, fmt.Errorf("invoke: %w: empty frame", ErrInvalidInput)
	}
	samples := frame.Samples()
	if len(samples) != iv.blockSize {
		return FeatureResult{}, fmt.Errorf("invoke: %w: frame length %d, want %d",
			ErrInvalidInput, len(samples), iv.blockSize)
	}
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return FeatureResult{}, fmt.Errorf("invoke: %w: non-finite sample", ErrInvalidInput)
		}
	}

	value, vector, err := iv.alg.Analyze(samples)
	if err != nil {
		return FeatureResult{}, fmt.Errorf("invoke %q: %w", iv.alg.Name(), err)
	}

	iv.seq++
	return FeatureResult{
		Seq:       iv.seq,
		Timestamp: time.Now(),
		Algorithm: iv.alg.Name(),
		Value:     value,
		Vector:    vector,
	}, nil
}
