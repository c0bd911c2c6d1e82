package classify

import (
	"context"
	"strings"

	"github.com/petems/airpods-monitor/internal/device"
)

var (
	musicCodecs = []string{"aac", "a2dp"}
	callCodecs  = []string{"sco", "msbc", "hfp"}
)

// SampleRateProber gives a verdict from the audio output state when the
// codec says nothing.
type SampleRateProber interface {
	SampleRateProfile(ctx context.Context) device.Profile
}

// FromCodec maps a codec name to a profile. ok is false when the codec
// matches neither the music nor the call family.
func FromCodec(codec string) (device.Profile, bool) {
	lower := strings.ToLower(codec)
	if containsAny(lower, musicCodecs) {
		return device.Music, true
	}
	if containsAny(lower, callCodecs) {
		return device.Call, true
	}
	return device.Unknown, false
}

// Classifier resolves a codec to a profile, falling back to the audio
// output's sample rate. The fallback runs an external probe.
type Classifier struct {
	rates SampleRateProber
}

func New(rates SampleRateProber) *Classifier {
	return &Classifier{rates: rates}
}

func (c *Classifier) Classify(ctx context.Context, codec string) device.Profile {
	if p, ok := FromCodec(codec); ok {
		return p
	}
	return c.rates.SampleRateProfile(ctx)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
