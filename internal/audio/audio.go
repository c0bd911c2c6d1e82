package audio

import (
	"context"
	"strings"

	"github.com/petems/airpods-monitor/internal/device"
	"github.com/rs/zerolog"
)

// MusicSampleRate is the lowest output rate treated as the music profile
const MusicSampleRate = 44100

var headsetKeywords = []string{"airpods", "beats", "headphones"}

// Source lists the system's audio output devices
type Source interface {
	ListDevices(ctx context.Context) ([]AudioDevice, error)
}

// AudioDevice represents an audio output device
type AudioDevice struct {
	Name       string `json:"name"`
	Default    bool   `json:"default_output"`
	SampleRate int    `json:"sample_rate"` // zero when unreported
}

// IsHeadset reports whether the device name looks like a headset
func (d AudioDevice) IsHeadset() bool {
	name := strings.ToLower(d.Name)
	for _, kw := range headsetKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// ProfileFromDevices picks the first headset that is the default output and
// reports a sample rate. ok is false when none qualifies.
func ProfileFromDevices(devices []AudioDevice) (device.Profile, bool) {
	for _, d := range devices {
		if !d.IsHeadset() || !d.Default || d.SampleRate <= 0 {
			continue
		}
		if d.SampleRate >= MusicSampleRate {
			return device.Music, true
		}
		return device.Call, true
	}
	return device.Unknown, false
}

// Prober turns the audio-state inventory into a profile verdict
type Prober struct {
	src Source
	log zerolog.Logger
}

// NewProber creates a Prober reading from src
func NewProber(src Source, log zerolog.Logger) *Prober {
	return &Prober{src: src, log: log}
}

// SampleRateProfile always returns a verdict. Without evidence, or when the
// inventory fails, connected headphones are assumed to be playing music.
func (p *Prober) SampleRateProfile(ctx context.Context) device.Profile {
	devices, err := p.src.ListDevices(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("Audio state unavailable, assuming music")
		return device.Music
	}

	profile, ok := ProfileFromDevices(devices)
	if !ok {
		p.log.Debug().Int("devices", len(devices)).Msg("No default headset output, assuming music")
		return device.Music
	}
	return profile
}

// Devices lists the headsets known to the audio inventory
func (p *Prober) Devices(ctx context.Context) ([]AudioDevice, error) {
	devices, err := p.src.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]AudioDevice, 0, len(devices))
	for _, d := range devices {
		if d.IsHeadset() {
			result = append(result, d)
		}
	}
	return result, nil
}
