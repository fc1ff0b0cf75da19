package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"featex/internal/build"
	"featex/internal/config"
)

// Options is the parsed CLI outcome: the effective configuration plus
// the one-off command to run instead of the engine (empty for none).
type Options struct {
	Config  *config.Config
	Command string
}

// ParseArgs parses the command line and produces the effective
// configuration: defaults, then config file, then environment, then
// any explicitly set flags on top.
func ParseArgs() (*Options, error) {
	buildInfo := build.GetBuildFlags()
	opts := &Options{}

	var (
		configPath     string
		deviceID       int
		sampleRate     float64
		blockSize      int
		channels       int
		captureChannel int
		algorithm      string
		record         bool
		lowLatency     bool
		verbose        bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time streaming audio feature extraction",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// Explicit flags win over file and environment.
			if cmd.Flags().Changed("device") {
				cfg.Audio.InputDevice = deviceID
			}
			if cmd.Flags().Changed("sample-rate") {
				cfg.Audio.SampleRate = sampleRate
			}
			if cmd.Flags().Changed("block-size") {
				cfg.Audio.BlockSize = blockSize
			}
			if cmd.Flags().Changed("channels") {
				cfg.Audio.InputChannels = channels
			}
			if cmd.Flags().Changed("capture-channel") {
				cfg.Audio.CaptureChannel = captureChannel
			}
			if cmd.Flags().Changed("algorithm") {
				cfg.Analysis.Algorithm = algorithm
			}
			if cmd.Flags().Changed("record") {
				cfg.Recording.Enabled = record
			}
			if cmd.Flags().Changed("low-latency") {
				cfg.Audio.LowLatency = lowLatency
			}
			if verbose {
				cfg.Debug = true
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			opts.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the YAML configuration file")

	// Audio device configuration
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use the 'list' command to see available devices.")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&blockSize, "block-size", "b", config.DefaultBlockSize,
		"Frames per rendering quantum (power of 2, affects latency)")
	rootCmd.PersistentFlags().IntVarP(&channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().IntVar(&captureChannel, "capture-channel", 0,
		"Channel to analyze (0-based)")
	rootCmd.PersistentFlags().BoolVarP(&lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")

	// Analysis configuration
	rootCmd.PersistentFlags().StringVarP(&algorithm, "algorithm", "a", config.DefaultAlgorithm,
		"Feature algorithm: rms, peak, centroid, or bands")

	// Recording configuration
	rootCmd.PersistentFlags().BoolVarP(&record, "record", "r", false,
		"Record raw input to WAV while extracting")

	// Debug configuration
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return opts, nil
}
