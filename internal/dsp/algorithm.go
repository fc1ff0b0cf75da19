// SPDX-License-Identifier: MIT
package dsp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a malformed per-block frame. The stream
	// processor recovers from it by skipping the block.
	ErrInvalidInput = errors.New("invalid input frame")

	// ErrBlockSizeMismatch marks an algorithm/graph block size
	// disagreement. Surfaced at construction time, never per call.
	ErrBlockSizeMismatch = errors.New("block size mismatch")

	// ErrUnknownAlgorithm marks an algorithm name with no registered
	// constructor.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// Algorithm computes one feature value (and optionally a small fixed-
// shape vector) from a single frame. Implementations must be pure for
// a given configuration: any history state they keep is keyed to their
// own lifetime, not to the frame. Analyze runs on the real-time path
// and must not block or allocate beyond its pre-sized workspace.
type Algorithm interface {
	Name() string
	BlockSize() int
	Analyze(frame []float64) (value float64, vector []float64, err error)
}

// New constructs a built-in algorithm by name. Spectral algorithms
// need the sample rate to map FFT bins to frequencies.
func New(name string, blockSize int, sampleRate float64) (Algorithm, error) {
	switch name {
	case "rms":
		return newRMS(blockSize), nil
	case "peak":
		return newPeak(blockSize), nil
	case "centroid":
		return newCentroid(blockSize, sampleRate), nil
	case "bands":
		return newBands(blockSize, sampleRate), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}
