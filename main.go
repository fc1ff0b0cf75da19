package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"featex/cmd"
	"featex/internal/build"
	"featex/internal/config"
	"featex/internal/graph"
	applog "featex/internal/log"
	"featex/internal/module"
	"featex/internal/sink"
)

// main runs in three phases:
//
// 1. Startup (cold path): build info, runtime tuning, PortAudio
// initialization, argument parsing, one-off commands.
//
// 2. Concurrent (hot path): graph construction and start; from the
// first capture quantum on, the rendering callback is live and
// results stream toward the sinks.
//
// 3. Shutdown (cold path): signal-driven stop, disconnect, and
// resource release.
func main() {
	// ==================== STARTUP PHASE ====================

	if err := build.Initialize(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// One OS thread for the time-critical capture callback, one for
	// orchestration and delivery.
	runtime.GOMAXPROCS(2)

	if err := graph.Initialize(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer graph.Terminate()

	opts, err := cmd.ParseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// One-off commands run without the engine.
	if opts.Command != "" {
		if err := executeCommand(opts.Command); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if opts.Config == nil {
		return
	}
	cfg := opts.Config

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	// ==================== CONCURRENT PHASE ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	snk, err := buildSink(cfg)
	if err != nil {
		applog.Errorf("sink construction failed: %v", err)
		os.Exit(1)
	}

	manager := graph.NewManager(module.NewLoader())
	g, err := manager.CreateGraph(cfg, snk)
	if err != nil {
		applog.Errorf("graph construction failed: %v", err)
		snk.Close()
		os.Exit(1)
	}

	// The first capture quantum after Start marks the beginning of
	// the hot path.
	if err := g.Start(); err != nil {
		applog.Errorf("graph start failed: %v", err)
		g.Teardown()
		snk.Close()
		os.Exit(1)
	}

	applog.Infof("%s extracting %q features, ctrl-c to stop", build.GetBuildFlags().Name, cfg.Analysis.Algorithm)

	<-done

	// ==================== SHUTDOWN PHASE ====================

	if err := g.Stop(); err != nil {
		applog.Errorf("error stopping graph: %v", err)
	}
	if err := g.Teardown(); err != nil {
		applog.Errorf("error tearing down graph: %v", err)
	}
	if err := snk.Close(); err != nil {
		applog.Errorf("error closing sinks: %v", err)
	}

	proc := g.Processor()
	applog.Infof("session stats: skipped=%d dropped=%d gated=%d",
		proc.Skipped(), proc.Dropped(), proc.Gated())
}

// buildSink assembles the configured sink stack.
func buildSink(cfg *config.Config) (sink.Sink, error) {
	var sinks []sink.Sink

	if cfg.Sink.WebSocketEnabled {
		sinks = append(sinks, sink.NewWebSocketSink(cfg.Sink.WebSocketPort, 16*time.Millisecond))
	}
	if cfg.Sink.UDPEnabled {
		udp, err := sink.NewUDPSink(cfg.Sink.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, udp)
	}
	if cfg.Sink.LogResults || len(sinks) == 0 {
		sinks = append(sinks, sink.NewLogSink())
	}

	return sink.NewMulti(sinks...), nil
}

// executeCommand handles one-off commands that don't require the
// engine to be running.
func executeCommand(command string) error {
	switch command {
	case "list":
		return graph.ListDevices()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}
