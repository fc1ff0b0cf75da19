// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"featex/internal/config"
)

// Initialize sets up the PortAudio subsystem. Must be called before
// any graph is constructed and paired with a Terminate call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// Device describes one host audio device.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// paDevicesFunc is a package-var seam over portaudio.Devices so tests
// can run without audio hardware.
var paDevicesFunc = portaudio.Devices

// resolveInputDeviceFunc is the seam used by graph construction.
var resolveInputDeviceFunc = resolveInputDevice

// resolveInputDevice returns the capture device for deviceID, or the
// system default for config.MinDeviceID.
func resolveInputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == config.MinDeviceID {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, err
		}
		return device, nil
	}

	devices, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if devices[deviceID].MaxInputChannels < 1 {
		return nil, fmt.Errorf("device %d has no input channels", deviceID)
	}
	return devices[deviceID], nil
}

// HostDevices returns all host audio devices.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
	}
	return devices, nil
}

// ListDevices prints all host audio devices with their capabilities.
func ListDevices() error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}

	fmt.Printf("\nAvailable Audio Devices\n\n")
	for _, d := range devices {
		deviceType := "Output"
		switch {
		case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
			deviceType = "Input+Output"
		case d.MaxInputChannels > 0:
			deviceType = "Input"
		}
		fmt.Printf("  [%d] %s\n", d.ID, d.Name)
		fmt.Printf("      Type: %s  In: %d  Out: %d  Default Rate: %.0f Hz\n",
			deviceType, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
	}
	return nil
}
