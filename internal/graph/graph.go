// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"featex/internal/config"
	"featex/internal/dsp"
	applog "featex/internal/log"
	"featex/internal/module"
	"featex/internal/record"
	"featex/internal/sink"
	"featex/internal/stream"
)

// captureStream is the slice of the PortAudio stream API the graph
// needs; a seam for hardware-free tests.
type captureStream interface {
	Start() error
	Stop() error
	Close() error
}

// openCaptureStreamFunc opens the live capture stream. Package-var
// seam, same style as paDevicesFunc.
var openCaptureStreamFunc = openCaptureStream

func openCaptureStream(dev *portaudio.DeviceInfo, cfg *config.Config, callback func([]float32)) (captureStream, error) {
	latency := dev.DefaultHighInputLatency
	if cfg.Audio.LowLatency {
		latency = dev.DefaultLowInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Audio.InputChannels,
			Latency:  latency,
		},
		FramesPerBuffer: cfg.Audio.BlockSize,
		SampleRate:      cfg.Audio.SampleRate,
	}
	return portaudio.OpenStream(params, callback)
}

// Manager constructs graphs. It owns the module loader so processor
// registrations survive across graph rebuilds in one session.
type Manager struct {
	loader *module.Loader
}

// NewManager creates a Manager around the given loader.
func NewManager(loader *module.Loader) *Manager {
	if loader == nil {
		loader = module.NewLoader()
	}
	return &Manager{loader: loader}
}

// Loader exposes the manager's module loader.
func (m *Manager) Loader() *module.Loader {
	return m.loader
}

// Graph is one live capture session.
type Graph struct {
	mu    sync.Mutex // serializes lifecycle transitions
	state atomic.Int32

	cfg     *config.Config
	proc    *stream.Processor
	disp    *stream.Dispatcher
	capture captureStream
	tap     *record.Tap
}

// CreateGraph constructs the live path: resolves the capture device,
// registers the processor module (if the configuration names
// sources), builds the analysis chain, and opens the capture stream.
// On success the graph is Ready. Construction failures surface as
// ErrDeviceUnavailable, module.ErrModuleLoad, or the underlying
// configuration error, and the graph never reaches Ready.
func (m *Manager) CreateGraph(cfg *config.Config, snk sink.Sink) (*Graph, error) {
	dev, err := resolveInputDeviceFunc(cfg.Audio.InputDevice)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	// Register the processor's code before any live node exists.
	// Lookup first: re-preparing an existing registration would be
	// wasteful, and the loader contract puts that check on us.
	if len(cfg.Module.Sources) > 0 {
		if _, ok := m.loader.Lookup(cfg.Module.Name); !ok {
			locs := module.ParseLocations(cfg.Module.Sources)
			if _, err := m.loader.Prepare(cfg.Module.Name, locs); err != nil {
				return nil, err
			}
		}
	}

	alg, err := dsp.New(cfg.Analysis.Algorithm, cfg.Audio.BlockSize, cfg.Audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("graph construction: %w", err)
	}
	invoker, err := dsp.NewInvoker(alg, cfg.Audio.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("graph construction: %w", err)
	}

	g := &Graph{cfg: cfg}
	g.proc = stream.NewProcessor(invoker, stream.ProcessorConfig{
		Channels:       cfg.Audio.InputChannels,
		CaptureChannel: cfg.Audio.CaptureChannel,
		QueueDepth:     cfg.Sink.QueueDepth,
		GateEnabled:    cfg.Analysis.GateEnabled,
		GateThreshold:  cfg.Analysis.GateThreshold,
	})
	g.disp = stream.NewDispatcher(g.proc.Results(), snk, func() bool {
		return g.State() == Running
	})

	if cfg.Recording.Enabled {
		g.tap = record.NewTap(cfg.Recording, cfg.Audio.SampleRate, cfg.Audio.BlockSize, cfg.Audio.InputChannels)
	}

	capture, err := openCaptureStreamFunc(dev, cfg, g.onQuantum)
	if err != nil {
		return nil, fmt.Errorf("%w: opening capture stream: %v", ErrDeviceUnavailable, err)
	}
	g.capture = capture

	g.disp.Start()
	g.state.Store(int32(Ready))
	applog.Infof("graph: ready (device %q, %d frames @ %.0f Hz, algorithm %s)",
		dev.Name, cfg.Audio.BlockSize, cfg.Audio.SampleRate, cfg.Analysis.Algorithm)
	return g, nil
}

// onQuantum is the capture callback bridging PortAudio to the stream
// processor and the optional recording tap.
func (g *Graph) onQuantum(in []float32) {
	if !g.proc.ProcessQuantum(in) {
		applog.Errorf("graph: stream processor halted permanently")
	}
	if g.tap != nil {
		g.tap.Write(in)
	}
}

// State returns the current lifecycle state.
func (g *Graph) State() State {
	return State(g.state.Load())
}

// Processor exposes the graph's stream processor (stats, snapshots).
func (g *Graph) Processor() *stream.Processor {
	return g.proc
}

// Start transitions Ready/Suspended -> Running. Idempotent while
// Running: the same processor instance keeps serving, nothing is
// reconstructed or re-registered. Starting a torn-down graph fails
// with ErrInvalidState.
func (g *Graph) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.State() {
	case Running:
		return nil
	case Ready, Suspended:
	default:
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidState, g.State())
	}

	if err := g.capture.Start(); err != nil {
		return fmt.Errorf("starting capture stream: %w", err)
	}
	if g.tap != nil {
		if err := g.tap.Start(g.recordingPath()); err != nil {
			applog.Warnf("graph: recording tap failed to start: %v", err)
		}
	}
	g.proc.Activate()
	g.state.Store(int32(Running))
	applog.Infof("graph: running")
	return nil
}

// Stop transitions Running -> Suspended. The processor is
// disconnected before the device's asynchronous suspend completes, so
// no quantum after the disconnect reaches it; at most one already in
// flight may finish, and the dispatcher discards its result once the
// state has left Running. Stopping a non-Running graph is a no-op.
func (g *Graph) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.State() != Running {
		return nil
	}

	// Disconnect first: mark Suspended and deactivate the processor,
	// then let the device wind down.
	g.state.Store(int32(Suspended))
	g.proc.Deactivate()

	if err := g.capture.Stop(); err != nil {
		return fmt.Errorf("stopping capture stream: %w", err)
	}
	if g.tap != nil {
		if err := g.tap.Stop(); err != nil {
			applog.Warnf("graph: recording tap failed to stop: %v", err)
		}
	}
	applog.Infof("graph: suspended")
	return nil
}

// Teardown releases the capture device and stops the dispatcher.
// Terminal: the graph is not reusable afterwards. Repeated calls are
// no-ops.
func (g *Graph) Teardown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.State() == TornDown {
		return nil
	}

	if g.State() == Running {
		g.state.Store(int32(Suspended))
		g.proc.Deactivate()
		if err := g.capture.Stop(); err != nil {
			applog.Warnf("graph: stop during teardown: %v", err)
		}
		if g.tap != nil {
			if err := g.tap.Stop(); err != nil {
				applog.Warnf("graph: recording tap stop during teardown: %v", err)
			}
		}
	}

	err := g.capture.Close()
	g.disp.Stop()
	g.state.Store(int32(TornDown))
	applog.Infof("graph: torn down")
	if err != nil {
		return fmt.Errorf("closing capture stream: %w", err)
	}
	return nil
}

func (g *Graph) recordingPath() string {
	name := "capture-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	return filepath.Join(g.cfg.Recording.OutputDir, name)
}
