package accessory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petems/airpods-monitor/internal/probe"
)

var ErrUnavailable = errors.New("accessory lister unavailable")

// Lister reports connected Bluetooth accessories as free-form text
type Lister interface {
	// Available reports whether the backing utility or service exists
	Available(ctx context.Context) bool
	// Connected returns text naming the connected accessories
	Connected(ctx context.Context) (string, error)
}

type commandLister struct {
	runner  probe.Runner
	utility string
	args    []string
	timeout time.Duration
}

// NewCommandLister uses a utility found on PATH, such as blueutil with
// --connected.
func NewCommandLister(runner probe.Runner, utility string, args []string, timeout time.Duration) Lister {
	return &commandLister{
		runner:  runner,
		utility: utility,
		args:    args,
		timeout: timeout,
	}
}

func (l *commandLister) Available(ctx context.Context) bool {
	_, err := l.runner.LookPath(l.utility)
	return err == nil
}

func (l *commandLister) Connected(ctx context.Context) (string, error) {
	path, err := l.runner.LookPath(l.utility)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, l.utility, err)
	}

	out, err := l.runner.Run(ctx, probe.Command{Path: path, Args: l.args, Timeout: l.timeout})
	if err != nil {
		if errors.Is(err, probe.ErrEmptyOutput) {
			return "", nil
		}
		return "", err
	}
	return string(out), nil
}
