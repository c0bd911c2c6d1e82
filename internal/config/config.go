package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	SourceCommand = "command"
	SourcePulse   = "pulse"
	SourceBluez   = "bluez"

	MinInterval = time.Second
)

type Config struct {
	Interval  time.Duration
	LogLevel  string
	ShowText  bool
	Inventory CommandConfig
	Audio     SourceConfig
	Accessory SourceConfig
	HTTP      HTTPConfig

	// Path is the file the config was read from, empty when none existed
	Path string
}

// CommandConfig is an external command and its time bound
type CommandConfig struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// SourceConfig selects a backend; the command fields apply to SourceCommand
type SourceConfig struct {
	Source string
	CommandConfig
}

type HTTPConfig struct {
	Addr string // empty disables the status server
}

// Loader reads the config file, environment and defaults
type Loader struct {
	v    *viper.Viper
	path string
	mu   sync.Mutex
}

// NewLoader creates a loader for path, or the platform default when empty
func NewLoader(path string) *Loader {
	if path == "" {
		path = configPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("AIRPODS_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Loader{v: v, path: path}
}

// Load reads the config from disk or returns defaults
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	found := true
	if err := l.v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		found = false
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	if found {
		cfg.Path = l.path
	}
	return cfg, nil
}

// Watch calls onChange with the reloaded config whenever the file changes.
// It does nothing when no config file exists.
func (l *Loader) Watch(onChange func(*Config, error)) {
	if _, err := os.Stat(l.path); err != nil {
		return
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.mu.Lock()
		cfg, err := l.decode()
		l.mu.Unlock()
		if err == nil {
			cfg.Path = l.path
		}
		onChange(cfg, err)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	v := l.v
	cfg := &Config{
		Interval: v.GetDuration("interval"),
		LogLevel: v.GetString("log_level"),
		ShowText: v.GetBool("show_text"),
		Inventory: CommandConfig{
			Command: v.GetString("inventory.command"),
			Args:    v.GetStringSlice("inventory.args"),
			Timeout: v.GetDuration("inventory.timeout"),
		},
		Audio: SourceConfig{
			Source: strings.ToLower(v.GetString("audio.source")),
			CommandConfig: CommandConfig{
				Command: v.GetString("audio.command"),
				Args:    v.GetStringSlice("audio.args"),
				Timeout: v.GetDuration("audio.timeout"),
			},
		},
		Accessory: SourceConfig{
			Source: strings.ToLower(v.GetString("accessory.source")),
			CommandConfig: CommandConfig{
				Command: v.GetString("accessory.command"),
				Args:    v.GetStringSlice("accessory.args"),
				Timeout: v.GetDuration("accessory.timeout"),
			},
		},
		HTTP: HTTPConfig{
			Addr: v.GetString("http.addr"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.Interval < MinInterval {
		c.Interval = MinInterval
	}
	if c.Inventory.Command == "" {
		return errors.New("inventory.command is required")
	}

	switch c.Audio.Source {
	case SourceCommand:
		if c.Audio.Command == "" {
			return errors.New("audio.command is required for the command source")
		}
	case SourcePulse:
	default:
		return fmt.Errorf("unknown audio.source %q (want %s or %s)", c.Audio.Source, SourceCommand, SourcePulse)
	}

	switch c.Accessory.Source {
	case SourceCommand:
		if c.Accessory.Command == "" {
			return errors.New("accessory.command is required for the command source")
		}
	case SourceBluez:
	default:
		return fmt.Errorf("unknown accessory.source %q (want %s or %s)", c.Accessory.Source, SourceCommand, SourceBluez)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	audioSource, accessorySource := SourceCommand, SourceCommand
	if runtime.GOOS != "darwin" {
		audioSource, accessorySource = SourcePulse, SourceBluez
	}

	v.SetDefault("interval", "15s")
	v.SetDefault("log_level", "info")
	v.SetDefault("show_text", true)

	v.SetDefault("inventory.command", "/usr/sbin/system_profiler")
	v.SetDefault("inventory.args", []string{"SPBluetoothDataType", "-json"})
	v.SetDefault("inventory.timeout", "10s")

	v.SetDefault("audio.source", audioSource)
	v.SetDefault("audio.command", "/usr/sbin/system_profiler")
	v.SetDefault("audio.args", []string{"SPAudioDataType", "-json"})
	v.SetDefault("audio.timeout", "10s")

	v.SetDefault("accessory.source", accessorySource)
	v.SetDefault("accessory.command", "blueutil")
	v.SetDefault("accessory.args", []string{"--connected"})
	v.SetDefault("accessory.timeout", "10s")

	v.SetDefault("http.addr", "")
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "airpods-monitor", "config.yaml")
}
