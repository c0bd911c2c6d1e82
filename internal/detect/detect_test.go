package detect

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/petems/airpods-monitor/internal/device"
	"github.com/petems/airpods-monitor/internal/probe"
	"github.com/rs/zerolog"
)

const aacInventory = `{"SPBluetoothDataType": [{"device_connected": [
	{"AirPods Pro": {"device_minorType": "Headphones", "device_audio_codec": "AAC"}}
]}]}`

type mockRunner struct {
	out   []byte
	err   error
	calls int
}

func (m *mockRunner) Run(ctx context.Context, cmd probe.Command) ([]byte, error) {
	m.calls++
	return m.out, m.err
}

func (m *mockRunner) LookPath(name string) (string, error) {
	return "", errors.New("not found")
}

type mockLister struct {
	available bool
	out       string
	err       error
	checked   int
	listed    int
}

func (m *mockLister) Available(ctx context.Context) bool {
	m.checked++
	return m.available
}

func (m *mockLister) Connected(ctx context.Context) (string, error) {
	m.listed++
	return m.out, m.err
}

type fixedClassifier struct {
	profile device.Profile
	codecs  []string
}

func (f *fixedClassifier) Classify(ctx context.Context, codec string) device.Profile {
	f.codecs = append(f.codecs, codec)
	return f.profile
}

func newCoordinator(runner probe.Runner, lister *mockLister, cls Classifier) *Coordinator {
	cfg := Config{
		Runner:     runner,
		Inventory:  probe.Command{Path: "/usr/sbin/system_profiler", Args: []string{"SPBluetoothDataType", "-json"}, Timeout: 10 * time.Second},
		Classifier: cls,
		Logger:     zerolog.Nop(),
	}
	if lister != nil {
		cfg.Accessories = lister
	}
	return New(cfg)
}

func TestDetectPrimaryHeadphones(t *testing.T) {
	lister := &mockLister{available: true, out: "AirPods"}
	cls := &fixedClassifier{profile: device.Music}
	c := newCoordinator(&mockRunner{out: []byte(aacInventory)}, lister, cls)

	dev := c.Detect(context.Background())
	if dev == nil {
		t.Fatal("expected a device")
	}
	want := device.Device{Name: "AirPods Pro", AudioCodec: "AAC", Profile: device.Music}
	if *dev != want {
		t.Errorf("expected %+v, got %+v", want, *dev)
	}
	if len(cls.codecs) != 1 || cls.codecs[0] != "AAC" {
		t.Errorf("expected classifier to see AAC, got %v", cls.codecs)
	}
	if lister.listed != 0 {
		t.Error("fallback should not run after a primary hit")
	}
}

func TestDetectPrimaryWithoutHeadphonesIsFinal(t *testing.T) {
	lister := &mockLister{available: true, out: "AirPods"}
	c := newCoordinator(&mockRunner{out: []byte(`{"SPBluetoothDataType": []}`)}, lister, &fixedClassifier{})

	if dev := c.Detect(context.Background()); dev != nil {
		t.Errorf("expected no device, got %+v", dev)
	}
	if lister.listed != 0 {
		t.Error("fallback should only run when the inventory probe fails")
	}
}

func TestDetectFallback(t *testing.T) {
	tests := []struct {
		name       string
		probeErr   error
		lister     *mockLister
		wantDevice bool
	}{
		{
			name:     "empty output, utility missing",
			probeErr: &probe.Error{Kind: probe.ErrEmptyOutput},
			lister:   &mockLister{available: false},
		},
		{
			name:       "non-zero exit, utility lists airpods",
			probeErr:   &probe.Error{Kind: probe.ErrNonZeroExit, ExitCode: 1, Stderr: "denied"},
			lister:     &mockLister{available: true, out: `name: "Jo's AIRPODS Pro"`},
			wantDevice: true,
		},
		{
			name:     "launch failed, utility lists other devices",
			probeErr: &probe.Error{Kind: probe.ErrLaunchFailed},
			lister:   &mockLister{available: true, out: "Magic Keyboard"},
		},
		{
			name:     "timeout, utility errors",
			probeErr: &probe.Error{Kind: probe.ErrTimeout},
			lister:   &mockLister{available: true, err: errors.New("exit 1")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCoordinator(&mockRunner{err: tt.probeErr}, tt.lister, &fixedClassifier{})
			dev := c.Detect(context.Background())

			if !tt.wantDevice {
				if dev != nil {
					t.Errorf("expected no device, got %+v", dev)
				}
				return
			}
			want := device.Device{Name: "AirPods", AudioCodec: "Unknown", Profile: device.Unknown}
			if dev == nil || *dev != want {
				t.Errorf("expected %+v, got %+v", want, dev)
			}
		})
	}
}

func TestDetectWithoutLister(t *testing.T) {
	c := newCoordinator(&mockRunner{err: &probe.Error{Kind: probe.ErrEmptyOutput}}, nil, &fixedClassifier{})
	if dev := c.Detect(context.Background()); dev != nil {
		t.Errorf("expected no device, got %+v", dev)
	}
}

func TestDetectTimeoutProceedsToFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	lister := &mockLister{available: false}
	c := New(Config{
		Runner:      probe.New(zerolog.Nop()),
		Inventory:   probe.Command{Path: "/bin/sh", Args: []string{"-c", "sleep 30"}, Timeout: 200 * time.Millisecond},
		Classifier:  &fixedClassifier{},
		Accessories: lister,
		Logger:      zerolog.Nop(),
	})

	done := make(chan *device.Device, 1)
	go func() {
		done <- c.Detect(context.Background())
	}()

	select {
	case dev := <-done:
		if dev != nil {
			t.Errorf("expected no device, got %+v", dev)
		}
		if lister.checked != 1 {
			t.Errorf("expected the fallback stage to run once, ran %d", lister.checked)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator hung on a timed-out probe")
	}
}
