// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// spectralWorkspace holds the pre-allocated buffers shared by the
// FFT-based algorithms. Sized once at construction; the hot path only
// ever writes into these slices.
type spectralWorkspace struct {
	fftObj     *fourier.FFT
	sampleRate float64
	blockSize  int
	window     []float64    // Hann window coefficients
	input      []float64    // windowed input samples
	coeffs     []complex128 // FFT complex output
	magnitude  []float64    // magnitude spectrum
}

func newSpectralWorkspace(blockSize int, sampleRate float64) spectralWorkspace {
	window := make([]float64, blockSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(blockSize-1)))
	}
	outputSize := blockSize/2 + 1
	return spectralWorkspace{
		fftObj:     fourier.NewFFT(blockSize),
		sampleRate: sampleRate,
		blockSize:  blockSize,
		window:     window,
		input:      make([]float64, blockSize),
		coeffs:     make([]complex128, outputSize),
		magnitude:  make([]float64, outputSize),
	}
}

// computeMagnitudes windows the frame, runs the FFT, and fills the
// magnitude buffer in place.
func (w *spectralWorkspace) computeMagnitudes(frame []float64) {
	for i := range w.input {
		w.input[i] = frame[i] * w.window[i]
	}
	_ = w.fftObj.Coefficients(w.coeffs, w.input)
	for i := range w.coeffs {
		w.magnitude[i] = cmplx.Abs(w.coeffs[i])
	}
}

// binFrequency returns the center frequency (Hz) of FFT bin i.
func (w *spectralWorkspace) binFrequency(i int) float64 {
	return w.fftObj.Freq(i) * w.sampleRate
}

// centroid computes the spectral centroid in Hz: the magnitude-
// weighted mean frequency of the block. Silent blocks yield 0.
type centroid struct {
	ws spectralWorkspace
}

func newCentroid(blockSize int, sampleRate float64) *centroid {
	return &centroid{ws: newSpectralWorkspace(blockSize, sampleRate)}
}

func (a *centroid) Name() string   { return "centroid" }
func (a *centroid) BlockSize() int { return a.ws.blockSize }

func (a *centroid) Analyze(frame []float64) (float64, []float64, error) {
	a.ws.computeMagnitudes(frame)

	var weighted, total float64
	for i, m := range a.ws.magnitude {
		weighted += a.ws.binFrequency(i) * m
		total += m
	}
	if total == 0 {
		return 0, nil, nil
	}
	return weighted / total, nil, nil
}

// frequencyBand defines one named band for energy aggregation.
type frequencyBand struct {
	name   string
	lowHz  float64
	highHz float64
}

// bands computes per-band energy (sum of squared magnitudes,
// normalized by bin count) over a fixed band table. The scalar value
// is the total energy; the vector carries one entry per band.
type bands struct {
	ws     spectralWorkspace
	table  []frequencyBand
	energy []float64 // per-band accumulation scratch
	counts []int     // per-band bin counts
}

func newBands(blockSize int, sampleRate float64) *bands {
	table := []frequencyBand{
		{name: "sub", lowHz: 20, highHz: 60},
		{name: "bass", lowHz: 60, highHz: 250},
		{name: "lowMid", lowHz: 250, highHz: 500},
		{name: "mid", lowHz: 500, highHz: 2000},
		{name: "highMid", lowHz: 2000, highHz: 4000},
		{name: "treble", lowHz: 4000, highHz: sampleRate / 2},
	}
	return &bands{
		ws:     newSpectralWorkspace(blockSize, sampleRate),
		table:  table,
		energy: make([]float64, len(table)),
		counts: make([]int, len(table)),
	}
}

func (a *bands) Name() string   { return "bands" }
func (a *bands) BlockSize() int { return a.ws.blockSize }

// BandNames returns the band labels in vector order.
func (a *bands) BandNames() []string {
	names := make([]string, len(a.table))
	for i, b := range a.table {
		names[i] = b.name
	}
	return names
}

func (a *bands) Analyze(frame []float64) (float64, []float64, error) {
	a.ws.computeMagnitudes(frame)

	for i := range a.energy {
		a.energy[i] = 0
		a.counts[i] = 0
	}
	for i, m := range a.ws.magnitude {
		freq := a.ws.binFrequency(i)
		for bi, b := range a.table {
			if freq >= b.lowHz && freq < b.highHz {
				a.energy[bi] += m * m
				a.counts[bi]++
				break
			}
		}
	}

	var total float64
	// The vector is handed off asynchronously, so it cannot alias the
	// reused scratch; one small fixed-size copy per block.
	vec := make([]float64, len(a.energy))
	for i := range a.energy {
		if a.counts[i] > 0 {
			a.energy[i] /= float64(a.counts[i])
		}
		vec[i] = a.energy[i]
		total += a.energy[i]
	}
	return total, vec, nil
}
