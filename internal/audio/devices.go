package audio

import (
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// Device describes a capture-capable input device as reported by the
// host audio subsystem.
type Device struct {
	Name              string
	MaxInputChannels  uint32
	DefaultSampleRate uint32
	IsDefault         bool

	id malgo.DeviceID
}

// matches reports whether the device answers to the given selector:
// exact name first, then case-insensitive substring.
func (d Device) matches(selector string) bool {
	if selector == "" {
		return d.IsDefault
	}
	if d.Name == selector {
		return true
	}
	return strings.Contains(strings.ToLower(d.Name), strings.ToLower(selector))
}

// Devices enumerates the host's capture devices.
func (e *Engine) Devices() ([]Device, error) {
	return e.list()
}

func (e *Engine) devicesMalgo() ([]Device, error) {
	infos, err := e.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("audio: enumerating capture devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		d := Device{
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
			id:        info.ID,
		}
		for _, f := range info.Formats[:info.FormatCount] {
			if f.Channels > d.MaxInputChannels {
				d.MaxInputChannels = f.Channels
			}
			if d.DefaultSampleRate == 0 {
				d.DefaultSampleRate = f.SampleRate
			}
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// findDevice resolves a non-empty selector to an enumerated device.
func (e *Engine) findDevice(selector string) (Device, error) {
	devices, err := e.list()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.Name == selector {
			return d, nil
		}
	}
	for _, d := range devices {
		if d.matches(selector) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("audio: no capture device matching %q", selector)
}
