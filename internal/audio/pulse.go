package audio

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

type pulseSource struct{}

// NewPulseSource reads the default sink of the PulseAudio (or PipeWire
// pulse) server. Only the default sink is reported, so Default is always set.
func NewPulseSource() Source {
	return &pulseSource{}
}

func (s *pulseSource) ListDevices(ctx context.Context) ([]AudioDevice, error) {
	type result struct {
		dev AudioDevice
		err error
	}

	// The pulse client has no context support; abandon the call on cancel.
	done := make(chan result, 1)
	go func() {
		dev, err := defaultSink()
		done <- result{dev: dev, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return []AudioDevice{r.dev}, nil
	}
}

func defaultSink() (AudioDevice, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return AudioDevice{}, fmt.Errorf("failed to create pulse client: %w", err)
	}
	defer c.Close()

	sink, err := c.DefaultSink()
	if err != nil {
		return AudioDevice{}, fmt.Errorf("failed to get default sink: %w", err)
	}

	var reply proto.GetSinkInfoReply
	req := proto.GetSinkInfo{SinkIndex: proto.Undefined, SinkName: sink.ID()}
	if err := c.RawRequest(&req, &reply); err != nil {
		return AudioDevice{}, fmt.Errorf("failed to request sink info: %w", err)
	}

	return AudioDevice{
		Name:       sink.Name(),
		Default:    true,
		SampleRate: int(reply.SampleSpec.Rate),
	}, nil
}
