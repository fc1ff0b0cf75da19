package config

// Boundaries and defaults for the feature-extraction engine.
const (
	DefaultSampleRate = 44100 // CD-quality audio
	DefaultBlockSize  = 1024  // Samples per rendering quantum (power of 2)
	DefaultChannels   = 1     // Mono capture
	DefaultDeviceID   = MinDeviceID
	DefaultAlgorithm  = "rms"
	DefaultQueueDepth = 64 // Result queue depth in blocks

	// Hardware and processing limits.
	MinDeviceID   = -1     // -1 selects the system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MinBlockSize  = 64     // Minimum frames per rendering quantum
	MaxBlockSize  = 8192   // Maximum frames per rendering quantum (power of 2)
)

// Config holds all runtime configuration, loaded from YAML with
// environment and CLI flag overrides applied on top.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Verbose logging and debug features.
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn", "error".
	Audio     AudioConfig     `yaml:"audio"`     // Capture device and block settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Feature algorithm selection.
	Sink      SinkConfig      `yaml:"sink"`      // Result delivery settings.
	Module    ModuleConfig    `yaml:"module"`    // Processor module registration.
	Recording RecordingConfig `yaml:"recording"` // Raw capture tap settings.
}

// AudioConfig holds settings for the capture side of the signal graph.
type AudioConfig struct {
	InputDevice    int     `yaml:"input_device"`    // PortAudio device index (-1 for default).
	SampleRate     float64 `yaml:"sample_rate"`     // Sample rate in Hz.
	BlockSize      int     `yaml:"block_size"`      // Frames per rendering quantum (power of 2).
	InputChannels  int     `yaml:"input_channels"`  // Channels captured from the device.
	CaptureChannel int     `yaml:"capture_channel"` // Channel analyzed (0-based).
	LowLatency     bool    `yaml:"low_latency"`     // Request low latency from the device.
}

// AnalysisConfig selects and tunes the feature-extraction algorithm.
type AnalysisConfig struct {
	Algorithm     string  `yaml:"algorithm"`      // Algorithm name: "rms", "peak", "centroid", "bands".
	GateEnabled   bool    `yaml:"gate_enabled"`   // Skip analysis on near-silent blocks.
	GateThreshold float64 `yaml:"gate_threshold"` // Peak-amplitude gate threshold, 0.0-1.0.
}

// SinkConfig describes where computed FeatureResults are delivered.
type SinkConfig struct {
	QueueDepth       int    `yaml:"queue_depth"`        // Result queue depth; oldest results drop on overflow.
	WebSocketEnabled bool   `yaml:"websocket_enabled"`  // Broadcast results over WebSocket.
	WebSocketPort    string `yaml:"websocket_port"`     // Port for the WebSocket server.
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Send results as binary UDP packets.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target "host:port" for UDP.
	LogResults       bool   `yaml:"log_results"`        // Log each result (debugging).
}

// ModuleConfig names the processor module and the ordered source
// locations concatenated into it. An empty source list means the
// built-in processor is used and no registration is performed.
type ModuleConfig struct {
	Name    string   `yaml:"name"`    // Registration name for the processor module.
	Sources []string `yaml:"sources"` // Ordered code locations (URLs, paths, or inline:... blobs).
}

// RecordingConfig holds settings for the optional raw capture tap.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record raw input while extracting.
	OutputDir string `yaml:"output_dir"` // Directory for recorded WAV files.
	BitDepth  int    `yaml:"bit_depth"`  // WAV bit depth (16 or 24).
}

// NewConfig returns a Config populated with defaults. This is the base
// that file, environment, and flag overrides are applied to.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:    DefaultDeviceID,
			SampleRate:     DefaultSampleRate,
			BlockSize:      DefaultBlockSize,
			InputChannels:  DefaultChannels,
			CaptureChannel: 0,
			LowLatency:     false,
		},
		Analysis: AnalysisConfig{
			Algorithm:     DefaultAlgorithm,
			GateEnabled:   false,
			GateThreshold: 0.001,
		},
		Sink: SinkConfig{
			QueueDepth:       DefaultQueueDepth,
			WebSocketEnabled: false,
			WebSocketPort:    "8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			LogResults:       false,
		},
		Module: ModuleConfig{
			Name:    "feature-processor",
			Sources: nil,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: "./recordings",
			BitDepth:  16,
		},
	}
}
