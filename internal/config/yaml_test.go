package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Audio.BlockSize != DefaultBlockSize {
		t.Errorf("BlockSize = %d, want %d", cfg.Audio.BlockSize, DefaultBlockSize)
	}
	if cfg.Analysis.Algorithm != DefaultAlgorithm {
		t.Errorf("Algorithm = %q, want %q", cfg.Analysis.Algorithm, DefaultAlgorithm)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "featex.yaml")
	data := []byte(`
log_level: debug
audio:
  sample_rate: 48000
  block_size: 128
  input_channels: 2
  capture_channel: 1
analysis:
  algorithm: centroid
sink:
  queue_depth: 16
  udp_enabled: true
  udp_target_address: "127.0.0.1:9191"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("SampleRate = %f, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.BlockSize != 128 {
		t.Errorf("BlockSize = %d, want 128", cfg.Audio.BlockSize)
	}
	if cfg.Audio.CaptureChannel != 1 {
		t.Errorf("CaptureChannel = %d, want 1", cfg.Audio.CaptureChannel)
	}
	if cfg.Analysis.Algorithm != "centroid" {
		t.Errorf("Algorithm = %q, want centroid", cfg.Analysis.Algorithm)
	}
	if cfg.Sink.QueueDepth != 16 {
		t.Errorf("QueueDepth = %d, want 16", cfg.Sink.QueueDepth)
	}
	// Unset fields keep their defaults.
	if cfg.Sink.WebSocketPort != "8080" {
		t.Errorf("WebSocketPort = %q, want default 8080", cfg.Sink.WebSocketPort)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FEATEX_SAMPLE_RATE", "96000")
	t.Setenv("FEATEX_BLOCK_SIZE", "256")
	t.Setenv("FEATEX_ALGORITHM", "peak")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 96000 {
		t.Errorf("SampleRate = %f, want 96000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.BlockSize != 256 {
		t.Errorf("BlockSize = %d, want 256", cfg.Audio.BlockSize)
	}
	if cfg.Analysis.Algorithm != "peak" {
		t.Errorf("Algorithm = %q, want peak", cfg.Analysis.Algorithm)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non power-of-two block size", func(c *Config) { c.Audio.BlockSize = 100 }},
		{"block size too small", func(c *Config) { c.Audio.BlockSize = 32 }},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 4000 }},
		{"sample rate too high", func(c *Config) { c.Audio.SampleRate = 400000 }},
		{"capture channel out of range", func(c *Config) { c.Audio.CaptureChannel = 1 }},
		{"zero input channels", func(c *Config) { c.Audio.InputChannels = 0 }},
		{"empty algorithm", func(c *Config) { c.Analysis.Algorithm = "" }},
		{"gate threshold out of range", func(c *Config) { c.Analysis.GateThreshold = 1.5 }},
		{"zero queue depth", func(c *Config) { c.Sink.QueueDepth = 0 }},
		{"udp address missing port", func(c *Config) {
			c.Sink.UDPEnabled = true
			c.Sink.UDPTargetAddress = "localhost"
		}},
		{"module sources without name", func(c *Config) {
			c.Module.Name = ""
			c.Module.Sources = []string{"inline:x"}
		}},
		{"bad recording bit depth", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.BitDepth = 12
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
