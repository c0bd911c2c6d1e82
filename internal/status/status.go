package status

import (
	"fmt"

	"github.com/petems/airpods-monitor/internal/device"
)

const noDeviceIcon = "❓"

// Title is the short status line, e.g. "🎧 Music". With showText off only
// the glyph is shown.
func Title(d *device.Device, showText bool) string {
	if d == nil {
		if showText {
			return noDeviceIcon + " No Device"
		}
		return noDeviceIcon
	}
	if showText {
		return fmt.Sprintf("%s %s", d.Profile.Icon(), d.Profile.Label())
	}
	return d.Profile.Icon()
}

// Tooltip describes the device in one sentence
func Tooltip(d *device.Device) string {
	if d == nil {
		return "No AirPods connected"
	}
	return fmt.Sprintf("%s in %s mode - Codec: %s", d.Name, d.Profile.Label(), d.AudioCodec)
}

// Lines returns the detail lines shown above the actions in a menu
func Lines(d *device.Device) []string {
	if d == nil {
		return []string{"No AirPods Connected"}
	}
	return []string{
		"Device: " + d.Name,
		"Profile: " + d.Profile.Label(),
		"Codec: " + d.AudioCodec,
	}
}
