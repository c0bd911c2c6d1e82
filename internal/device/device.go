package device

// Profile is the usage mode of a connected headset
type Profile int

const (
	Unknown Profile = iota
	Music
	Call
)

// Label returns the display name of the profile
func (p Profile) Label() string {
	switch p {
	case Music:
		return "Music"
	case Call:
		return "Call"
	default:
		return "Unknown"
	}
}

// Icon returns the glyph shown next to the label
func (p Profile) Icon() string {
	switch p {
	case Music:
		return "🎧"
	case Call:
		return "📞"
	default:
		return "❓"
	}
}

func (p Profile) String() string {
	return p.Label()
}

// MarshalText encodes the profile as its lowercase name.
func (p Profile) MarshalText() ([]byte, error) {
	switch p {
	case Music:
		return []byte("music"), nil
	case Call:
		return []byte("call"), nil
	default:
		return []byte("unknown"), nil
	}
}

// UnmarshalText accepts the names MarshalText produces. Anything else
// decodes to Unknown.
func (p *Profile) UnmarshalText(text []byte) error {
	switch string(text) {
	case "music":
		*p = Music
	case "call":
		*p = Call
	default:
		*p = Unknown
	}
	return nil
}

// Device is a detected headset. Values are never mutated after construction;
// a new poll produces a new Device.
type Device struct {
	Name       string  `json:"name"`
	AudioCodec string  `json:"audio_codec"`
	Profile    Profile `json:"profile"`
}

// New returns a pointer to a freshly allocated Device
func New(name, codec string, profile Profile) *Device {
	return &Device{
		Name:       name,
		AudioCodec: codec,
		Profile:    profile,
	}
}
