// SPDX-License-Identifier: MIT

// Package record implements an optional WAV tap over the raw capture
// stream, so the audio being analyzed can be kept for later review.
// The tap rides the real-time callback, so its state flag is atomic
// and its conversion buffer is pre-allocated.
package record

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"featex/internal/config"
	applog "featex/internal/log"
)

// Tap encodes raw capture buffers to a WAV file while recording is
// active. Write is called from the capture callback; Start and Stop
// from the controlling context.
type Tap struct {
	sampleRate int
	blockSize  int
	channels   int
	bitDepth   int
	scale      float64

	isRecording atomic.Int32
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // reusable conversion buffer
}

// NewTap creates an inactive tap sized for the capture format.
func NewTap(cfg config.RecordingConfig, sampleRate float64, blockSize, channels int) *Tap {
	bitDepth := cfg.BitDepth
	if bitDepth != 16 && bitDepth != 24 {
		bitDepth = 16
	}
	return &Tap{
		sampleRate: int(sampleRate),
		blockSize:  blockSize,
		channels:   channels,
		bitDepth:   bitDepth,
		scale:      float64(int(1)<<(bitDepth-1)) - 1,
	}
}

// Start opens the output file and begins recording. Fails if already
// recording.
func (t *Tap) Start(filename string) error {
	if t.isRecording.Load() == 1 {
		return fmt.Errorf("already recording")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating recording directory: %w", err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating recording file: %w", err)
	}
	t.outputFile = file

	t.wavEncoder = wav.NewEncoder(file, t.sampleRate, t.bitDepth, t.channels, 1)
	t.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: t.channels,
			SampleRate:  t.sampleRate,
		},
		SourceBitDepth: t.bitDepth,
		Data:           make([]int, t.blockSize*t.channels),
	}

	t.isRecording.Store(1)
	applog.Infof("record: writing to %s", filename)
	return nil
}

// Write converts one raw capture buffer to integer PCM and appends it
// to the file. No-op while not recording. Uses the pre-allocated
// conversion buffer only.
func (t *Tap) Write(in []float32) {
	if t.isRecording.Load() != 1 || t.wavEncoder == nil {
		return
	}

	n := len(in)
	if n > cap(t.sampleBuf.Data) {
		n = cap(t.sampleBuf.Data)
	}
	t.sampleBuf.Data = t.sampleBuf.Data[:n]
	for i := 0; i < n; i++ {
		s := float64(in[i])
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		t.sampleBuf.Data[i] = int(s * t.scale)
	}

	if err := t.wavEncoder.Write(t.sampleBuf); err != nil {
		applog.Errorf("record: error writing WAV data: %v", err)
	}
}

// Stop finalizes the WAV file. No-op if not recording.
func (t *Tap) Stop() error {
	if t.isRecording.Load() == 0 {
		return nil
	}
	t.isRecording.Store(0)

	if t.wavEncoder != nil {
		if err := t.wavEncoder.Close(); err != nil {
			return fmt.Errorf("closing WAV encoder: %w", err)
		}
		t.wavEncoder = nil
	}
	if t.outputFile != nil {
		if err := t.outputFile.Close(); err != nil {
			return fmt.Errorf("closing recording file: %w", err)
		}
		t.outputFile = nil
	}
	return nil
}

// Recording reports whether the tap is currently writing.
func (t *Tap) Recording() bool {
	return t.isRecording.Load() == 1
}
