package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petems/airpods-monitor/internal/accessory"
	"github.com/petems/airpods-monitor/internal/api"
	"github.com/petems/airpods-monitor/internal/audio"
	"github.com/petems/airpods-monitor/internal/classify"
	"github.com/petems/airpods-monitor/internal/config"
	"github.com/petems/airpods-monitor/internal/detect"
	"github.com/petems/airpods-monitor/internal/device"
	"github.com/petems/airpods-monitor/internal/monitor"
	"github.com/petems/airpods-monitor/internal/probe"
	"github.com/petems/airpods-monitor/internal/status"
	"github.com/rs/zerolog"
)

// StatusUpdater is an interface for showing status (e.g., a terminal line)
type StatusUpdater interface {
	SetStatus(title, tooltip string, st monitor.State)
}

type Config struct {
	Config        *config.Config
	Runner        probe.Runner
	AudioSource   audio.Source     // Optional - built from Config.Audio when nil
	Accessories   accessory.Lister // Optional - built from Config.Accessory when nil
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

type App struct {
	log     zerolog.Logger
	status  StatusUpdater
	audio   *audio.Prober
	coord   *detect.Coordinator
	monitor *monitor.Monitor

	showText atomic.Bool

	mu       sync.Mutex
	cfg      *config.Config
	subID    string
	server   *http.Server
	httpAddr string
}

func New(cfg Config) *App {
	c := cfg.Config

	src := cfg.AudioSource
	if src == nil {
		src = newAudioSource(c.Audio, cfg.Runner)
	}
	lister := cfg.Accessories
	if lister == nil {
		lister = newAccessoryLister(c.Accessory, cfg.Runner)
	}

	prober := audio.NewProber(src, cfg.Logger.With().Str("component", "audio").Logger())
	coord := detect.New(detect.Config{
		Runner:      cfg.Runner,
		Inventory:   command(c.Inventory),
		Classifier:  classify.New(prober),
		Accessories: lister,
		Logger:      cfg.Logger.With().Str("component", "detect").Logger(),
	})

	a := &App{
		log:     cfg.Logger,
		status:  cfg.StatusUpdater,
		audio:   prober,
		coord:   coord,
		monitor: monitor.New(coord, cfg.Logger.With().Str("component", "monitor").Logger()),
		cfg:     c,
	}
	a.showText.Store(c.ShowText)
	return a
}

func command(cc config.CommandConfig) probe.Command {
	return probe.Command{Path: cc.Command, Args: cc.Args, Timeout: cc.Timeout}
}

func newAudioSource(sc config.SourceConfig, runner probe.Runner) audio.Source {
	if sc.Source == config.SourcePulse {
		return audio.NewPulseSource()
	}
	return audio.NewCommandSource(runner, command(sc.CommandConfig))
}

func newAccessoryLister(sc config.SourceConfig, runner probe.Runner) accessory.Lister {
	if sc.Source == config.SourceBluez {
		return accessory.NewBluezLister()
	}
	return accessory.NewCommandLister(runner, sc.Command, sc.Args, sc.Timeout)
}

// Start begins polling and, when configured, serves the status API.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != nil && a.subID == "" {
		a.subID = a.monitor.Subscribe(a.onState)
	}

	if err := a.monitor.Start(a.cfg.Interval); err != nil {
		return err
	}

	if a.cfg.HTTP.Addr != "" {
		if err := a.serveLocked(a.cfg.HTTP.Addr); err != nil {
			a.monitor.Stop()
			return err
		}
	}

	a.log.Info().Dur("interval", a.cfg.Interval).Msg("AirPods monitor started")
	return nil
}

func (a *App) serveLocked(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	a.server = &http.Server{
		Handler:           api.NewRouter(a.monitor, a.ShowText, a.log.With().Str("component", "api").Logger()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.httpAddr = ln.Addr().String()

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("Status server error")
		}
	}(a.server)

	a.log.Info().Str("addr", a.httpAddr).Msg("Status server listening")
	return nil
}

func (a *App) onState(st monitor.State) {
	a.status.SetStatus(status.Title(st.Device, a.ShowText()), status.Tooltip(st.Device), st)
}

// Reload applies a changed config. Only interval and show_text take effect
// without a restart.
func (a *App) Reload(cfg *config.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()

	old := a.cfg
	a.cfg = cfg

	textChanged := a.showText.Swap(cfg.ShowText) != cfg.ShowText

	if cfg.Interval != old.Interval && a.monitor.Running() {
		a.monitor.Stop()
		if err := a.monitor.Start(cfg.Interval); err != nil {
			a.log.Error().Err(err).Msg("Failed to restart monitor")
		}
		a.log.Info().Dur("interval", cfg.Interval).Msg("Refresh interval changed")
		return
	}

	if textChanged {
		a.monitor.RefreshNow()
	}
	if cfg.HTTP.Addr != old.HTTP.Addr || cfg.Audio.Source != old.Audio.Source || cfg.Accessory.Source != old.Accessory.Source {
		a.log.Warn().Msg("Source and HTTP changes take effect after restart")
	}
}

// Shutdown stops polling and the status server.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.monitor.Stop()
	if a.subID != "" {
		a.monitor.Unsubscribe(a.subID)
		a.subID = ""
	}

	if a.server == nil {
		return nil
	}
	srv := a.server
	a.server = nil
	a.httpAddr = ""
	return srv.Shutdown(ctx)
}

func (a *App) Monitor() *monitor.Monitor {
	return a.monitor
}

// ShowText reports whether titles include the profile label
func (a *App) ShowText() bool {
	return a.showText.Load()
}

// HTTPAddr returns the address the status server listens on, or ""
func (a *App) HTTPAddr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.httpAddr
}

// DetectOnce runs a single detection pass outside the monitor
func (a *App) DetectOnce(ctx context.Context) *device.Device {
	return a.coord.Detect(ctx)
}

// AudioDevices lists the headsets the audio inventory knows about
func (a *App) AudioDevices(ctx context.Context) ([]audio.AudioDevice, error) {
	return a.audio.Devices(ctx)
}
