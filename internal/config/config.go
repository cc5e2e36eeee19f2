// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BrowserKind is one of the supported browsers.
type BrowserKind string

const (
	Chrome  BrowserKind = "CHROME"
	Firefox BrowserKind = "FIREFOX"
	Edge    BrowserKind = "EDGE"
	Opera   BrowserKind = "OPERA"
)

// BrowserKinds lists every supported kind.
var BrowserKinds = []BrowserKind{Chrome, Firefox, Edge, Opera}

// ParseBrowserKind resolves a kind case-insensitively.
func ParseBrowserKind(s string) (BrowserKind, error) {
	k := BrowserKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unsupported browser %q (want one of %v)", s, BrowserKinds)
	}
	return k, nil
}

func (k BrowserKind) Valid() bool {
	for _, known := range BrowserKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Chromium reports whether the kind is driven over the DevTools protocol.
func (k BrowserKind) Chromium() bool { return k == Chrome || k == Edge || k == Opera }

func (k BrowserKind) String() string { return string(k) }

// Config is the resolved configuration. It is built once at startup and
// passed by value, so no component can mutate another's view of it.
type Config struct {
	Browser  BrowserKind `mapstructure:"browser" yaml:"browser"`
	Headless bool        `mapstructure:"headless" yaml:"headless"`
	Grid     bool        `mapstructure:"grid" yaml:"grid"`
	// Close decides whether sessions are released when the run ends.
	Close bool `mapstructure:"close" yaml:"close"`

	GridURL            GridURLConfig  `mapstructure:"grid_url" yaml:"grid_url"`
	GridConnectTimeout time.Duration  `mapstructure:"grid_connect_timeout" yaml:"grid_connect_timeout"`
	Viewport           ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	Wait               WaitConfig     `mapstructure:"wait" yaml:"wait"`
	Logger             LoggerConfig   `mapstructure:"logger" yaml:"logger"`
}

// GridURLConfig holds the remote endpoint for each protocol family.
type GridURLConfig struct {
	Chromium string `mapstructure:"chromium" yaml:"chromium"`
	Firefox  string `mapstructure:"firefox" yaml:"firefox"`
}

// For returns the endpoint serving kind.
func (g GridURLConfig) For(kind BrowserKind) string {
	if kind == Firefox {
		return g.Firefox
	}
	return g.Chromium
}

// ViewportConfig is the fixed window size used by headless sessions.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// WaitConfig seeds the default wait policies.
type WaitConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// ProbeTimeout bounds isDisplayed/isExists style probes.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	// KeystrokeInterval paces writeSlowly.
	KeystrokeInterval time.Duration `mapstructure:"keystroke_interval" yaml:"keystroke_interval"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Session --
	v.SetDefault("browser", string(Chrome))
	v.SetDefault("headless", false)
	v.SetDefault("grid", false)
	v.SetDefault("close", true)

	// -- Grid --
	v.SetDefault("grid_url.chromium", "ws://localhost:9222")
	v.SetDefault("grid_url.firefox", "ws://localhost:4444/playwright")
	v.SetDefault("grid_connect_timeout", "30s")

	// -- Viewport --
	v.SetDefault("viewport.width", 1920)
	v.SetDefault("viewport.height", 1080)

	// -- Wait --
	v.SetDefault("wait.timeout", "20s")
	v.SetDefault("wait.poll_interval", "500ms")
	v.SetDefault("wait.probe_timeout", "4s")
	v.SetDefault("wait.keystroke_interval", "150ms")

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagekit")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (Config, error) {
	BindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// The properties file and environment accept any case for the browser name.
	if kind, err := ParseBrowserKind(string(cfg.Browser)); err == nil {
		cfg.Browser = kind
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c Config) Validate() error {
	if !c.Browser.Valid() {
		return fmt.Errorf("browser %q is not supported (want one of %v)", c.Browser, BrowserKinds)
	}
	if c.Grid {
		if err := ValidateGridURL(c.GridURL.For(c.Browser)); err != nil {
			return fmt.Errorf("grid_url: %w", err)
		}
		if c.GridConnectTimeout <= 0 {
			return fmt.Errorf("grid_connect_timeout must be a positive duration")
		}
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport.width and viewport.height must be positive integers")
	}
	if err := c.Wait.Validate(); err != nil {
		return fmt.Errorf("wait configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the wait durations.
func (w WaitConfig) Validate() error {
	if w.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if w.Timeout <= w.PollInterval {
		return fmt.Errorf("timeout (%s) must be greater than poll_interval (%s)", w.Timeout, w.PollInterval)
	}
	if w.ProbeTimeout <= w.PollInterval {
		return fmt.Errorf("probe_timeout (%s) must be greater than poll_interval (%s)", w.ProbeTimeout, w.PollInterval)
	}
	if w.KeystrokeInterval < 0 {
		return fmt.Errorf("keystroke_interval must not be negative")
	}
	return nil
}

// ValidateGridURL checks that raw is an absolute ws, wss, http or https URL
// with a host.
func ValidateGridURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("grid endpoint is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("grid endpoint %q is malformed: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("grid endpoint %q has unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("grid endpoint %q has no host", raw)
	}
	return nil
}
