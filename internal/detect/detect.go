// Package detect decides which headset, if any, is connected. It tries the
// Bluetooth inventory first and falls back to a connected-accessory lister.
// No error leaves this package; every failure degrades to "no device".
package detect

import (
	"context"
	"errors"
	"strings"

	"github.com/petems/airpods-monitor/internal/accessory"
	"github.com/petems/airpods-monitor/internal/device"
	"github.com/petems/airpods-monitor/internal/inventory"
	"github.com/petems/airpods-monitor/internal/probe"
	"github.com/rs/zerolog"
)

const (
	fallbackKeyword = "airpods"
	fallbackName    = "AirPods"
)

// Classifier resolves a codec to a profile
type Classifier interface {
	Classify(ctx context.Context, codec string) device.Profile
}

type Config struct {
	Runner      probe.Runner
	Inventory   probe.Command
	Classifier  Classifier
	Accessories accessory.Lister
	Logger      zerolog.Logger
}

type Coordinator struct {
	runner      probe.Runner
	inventory   probe.Command
	classifier  Classifier
	accessories accessory.Lister
	log         zerolog.Logger
}

func New(cfg Config) *Coordinator {
	return &Coordinator{
		runner:      cfg.Runner,
		inventory:   cfg.Inventory,
		classifier:  cfg.Classifier,
		accessories: cfg.Accessories,
		log:         cfg.Logger,
	}
}

// Detect returns the connected headset or nil.
func (c *Coordinator) Detect(ctx context.Context) *device.Device {
	out, err := c.runner.Run(ctx, c.inventory)
	if err == nil {
		return c.primary(ctx, out)
	}
	c.logProbeError(err)
	if ctx.Err() != nil {
		return nil
	}

	if c.accessories == nil || !c.accessories.Available(ctx) {
		c.log.Debug().Str("stage", "fallback").Msg("Accessory lister not available, no device")
		return nil
	}

	return c.fallback(ctx)
}

// primary handles a report from a successful inventory probe. A report
// without headphones is final; the fallback only covers a failed probe.
func (c *Coordinator) primary(ctx context.Context, out []byte) *device.Device {
	raw, err := inventory.Decode(out)
	if err != nil {
		c.log.Debug().Err(err).Str("stage", "primary").Msg("No headphones in inventory")
		return nil
	}

	profile := c.classifier.Classify(ctx, raw.Codec)
	c.log.Debug().
		Str("stage", "primary").
		Str("name", raw.Name).
		Str("codec", raw.Codec).
		Stringer("profile", profile).
		Msg("Headphones found")

	return device.New(raw.Name, raw.Codec, profile)
}

func (c *Coordinator) fallback(ctx context.Context) *device.Device {
	out, err := c.accessories.Connected(ctx)
	if err != nil {
		c.log.Warn().Err(err).Str("stage", "fallback").Msg("Accessory listing failed")
		return nil
	}

	if !strings.Contains(strings.ToLower(out), fallbackKeyword) {
		return nil
	}

	c.log.Debug().Str("stage", "fallback").Msg("AirPods listed as connected accessory")
	return device.New(fallbackName, inventory.UnknownCodec, device.Unknown)
}

func (c *Coordinator) logProbeError(err error) {
	evt := c.log.Warn()
	if errors.Is(err, probe.ErrEmptyOutput) {
		evt = c.log.Debug()
	}

	var probeErr *probe.Error
	if errors.As(err, &probeErr) {
		evt = evt.Str("command", probeErr.Command).Int("exit_code", probeErr.ExitCode)
		if probeErr.Stderr != "" {
			evt = evt.Str("stderr", probeErr.Stderr)
		}
	}
	evt.Err(err).Str("stage", "primary").Msg("Inventory probe failed, trying fallback")
}
