package device

import "testing"

func TestProfileLabels(t *testing.T) {
	tests := []struct {
		profile Profile
		label   string
		icon    string
		text    string
	}{
		{Music, "Music", "🎧", "music"},
		{Call, "Call", "📞", "call"},
		{Unknown, "Unknown", "❓", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := tt.profile.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
			if got := tt.profile.Icon(); got != tt.icon {
				t.Errorf("Icon() = %q, want %q", got, tt.icon)
			}
			text, err := tt.profile.MarshalText()
			if err != nil {
				t.Fatalf("MarshalText: %v", err)
			}
			if string(text) != tt.text {
				t.Errorf("MarshalText() = %q, want %q", text, tt.text)
			}
			var back Profile
			if err := back.UnmarshalText(text); err != nil || back != tt.profile {
				t.Errorf("UnmarshalText(%q) = %v, %v", text, back, err)
			}
		})
	}
}

func TestNewDevice(t *testing.T) {
	d := New("AirPods Pro", "AAC", Music)
	if d.Name != "AirPods Pro" {
		t.Errorf("expected name AirPods Pro, got %s", d.Name)
	}
	if d.AudioCodec != "AAC" {
		t.Errorf("expected codec AAC, got %s", d.AudioCodec)
	}
	if d.Profile != Music {
		t.Errorf("expected profile Music, got %s", d.Profile)
	}
}
