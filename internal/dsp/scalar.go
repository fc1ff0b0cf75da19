// SPDX-License-Identifier: MIT
package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// rms computes root-mean-square energy per block. All-zero input
// yields exactly 0.
type rms struct {
	blockSize int
}

func newRMS(blockSize int) *rms {
	return &rms{blockSize: blockSize}
}

func (a *rms) Name() string   { return "rms" }
func (a *rms) BlockSize() int { return a.blockSize }

func (a *rms) Analyze(frame []float64) (float64, []float64, error) {
	sum := floats.Dot(frame, frame)
	return math.Sqrt(sum / float64(len(frame))), nil, nil
}

// peak computes the maximum absolute sample amplitude per block.
type peak struct {
	blockSize int
}

func newPeak(blockSize int) *peak {
	return &peak{blockSize: blockSize}
}

func (a *peak) Name() string   { return "peak" }
func (a *peak) BlockSize() int { return a.blockSize }

func (a *peak) Analyze(frame []float64) (float64, []float64, error) {
	var max float64
	for _, s := range frame {
		if s < 0 {
			s = -s
		}
		if s > max {
			max = s
		}
	}
	return max, nil, nil
}
