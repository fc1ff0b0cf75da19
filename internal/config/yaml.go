// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"featex/pkg/bitint"
)

// Load loads configuration from a YAML file at path. If path is empty
// it searches the default locations ("featex.yaml", "config.yaml"); if
// no file is found the built-in defaults are used. Environment
// overrides are applied after loading, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range []string{"featex.yaml", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration against the engine's limits.
// Block size must be a power of two because the spectral algorithms
// size their FFT directly from it.
func (c *Config) Validate() error {
	a := &c.Audio
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f out of range [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.BlockSize < MinBlockSize || a.BlockSize > MaxBlockSize {
		return fmt.Errorf("audio.block_size %d out of range [%d, %d]", a.BlockSize, MinBlockSize, MaxBlockSize)
	}
	if !bitint.IsPowerOfTwo(a.BlockSize) {
		return fmt.Errorf("audio.block_size %d is not a power of 2", a.BlockSize)
	}
	if a.InputChannels < 1 {
		return fmt.Errorf("audio.input_channels must be >= 1, got %d", a.InputChannels)
	}
	if a.CaptureChannel < 0 || a.CaptureChannel >= a.InputChannels {
		return fmt.Errorf("audio.capture_channel %d out of range [0, %d)", a.CaptureChannel, a.InputChannels)
	}
	if a.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device %d is invalid", a.InputDevice)
	}

	if c.Analysis.Algorithm == "" {
		return fmt.Errorf("analysis.algorithm must be set")
	}
	if c.Analysis.GateThreshold < 0 || c.Analysis.GateThreshold > 1 {
		return fmt.Errorf("analysis.gate_threshold %.3f out of range [0, 1]", c.Analysis.GateThreshold)
	}

	if c.Sink.QueueDepth < 1 {
		return fmt.Errorf("sink.queue_depth must be >= 1, got %d", c.Sink.QueueDepth)
	}
	if c.Sink.UDPEnabled && !strings.Contains(c.Sink.UDPTargetAddress, ":") {
		return fmt.Errorf("sink.udp_target_address %q appears invalid (missing port?)", c.Sink.UDPTargetAddress)
	}

	if len(c.Module.Sources) > 0 && c.Module.Name == "" {
		return fmt.Errorf("module.name must be set when module.sources is non-empty")
	}

	if c.Recording.Enabled && c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
		return fmt.Errorf("recording.bit_depth must be 16 or 24, got %d", c.Recording.BitDepth)
	}

	return nil
}

// applyEnvOverrides applies FEATEX_* environment variables on top of
// whatever the file (or defaults) provided. Unparseable values are
// ignored rather than fatal.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("FEATEX_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("FEATEX_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("FEATEX_INPUT_DEVICE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = n
		}
	}
	if val, ok := os.LookupEnv("FEATEX_SAMPLE_RATE"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Audio.SampleRate = f
		}
	}
	if val, ok := os.LookupEnv("FEATEX_BLOCK_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Audio.BlockSize = n
		}
	}
	if val, ok := os.LookupEnv("FEATEX_ALGORITHM"); ok {
		c.Analysis.Algorithm = val
	}
	if val, ok := os.LookupEnv("FEATEX_UDP_TARGET_ADDRESS"); ok {
		c.Sink.UDPTargetAddress = val
	}
}
