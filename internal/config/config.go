// Package config loads application settings with viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pcb-annotator/internal/viewport"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. PCBANNOT_LOGLEVEL.
	EnvPrefix = "PCBANNOT"
	// FileName is the config file searched for when none is given.
	FileName = "pcb-annotator"
)

// ViewportConfig holds zoom and fit settings.
type ViewportConfig struct {
	MinScale    float64 `mapstructure:"minScale"`
	MaxScale    float64 `mapstructure:"maxScale"`
	ZoomStep    float64 `mapstructure:"zoomStep"`
	FitCoverage float64 `mapstructure:"fitCoverage"`
}

// WindowConfig holds the initial window size.
type WindowConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Config is the typed application configuration.
type Config struct {
	LogLevel  string            `mapstructure:"logLevel"`
	LogFile   string            `mapstructure:"logFile"`
	MapsDir   string            `mapstructure:"mapsDir"`
	Maps      map[string]string `mapstructure:"maps"` // view name -> source file
	StartView string            `mapstructure:"startView"`
	DevMode   bool              `mapstructure:"devMode"`

	Viewport ViewportConfig `mapstructure:"viewport"`
	Window   WindowConfig   `mapstructure:"window"`

	Watch struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"watch"`

	Clipboard struct {
		Feedback time.Duration `mapstructure:"feedback"`
	} `mapstructure:"clipboard"`
}

// SetDefaults registers the default for every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFile", "")
	viper.SetDefault("mapsDir", "./maps")
	viper.SetDefault("maps.upper", "upper.yaml")
	viper.SetDefault("maps.lower", "lower.json")
	viper.SetDefault("startView", "upper")
	viper.SetDefault("devMode", false)

	viper.SetDefault("viewport.minScale", viewport.DefaultMinScale)
	viper.SetDefault("viewport.maxScale", viewport.DefaultMaxScale)
	viper.SetDefault("viewport.zoomStep", viewport.DefaultZoomStep)
	viper.SetDefault("viewport.fitCoverage", viewport.DefaultFitCoverage)

	viper.SetDefault("window.width", 1280)
	viper.SetDefault("window.height", 800)

	viper.SetDefault("watch.interval", "2s")
	viper.SetDefault("clipboard.feedback", "800ms")
}

// Load reads the configuration. With an empty configFile it searches the
// working directory and the user config directory for pcb-annotator.yaml;
// a missing file is not an error there. An explicit configFile must exist.
func Load(configFile string) (*Config, error) {
	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(FileName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(dir, FileName))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	v := c.Viewport
	if v.MinScale <= 0 {
		errs = append(errs, fmt.Errorf("viewport.minScale must be positive, got %g", v.MinScale))
	}
	if v.MaxScale < v.MinScale {
		errs = append(errs, fmt.Errorf("viewport.maxScale %g is below minScale %g", v.MaxScale, v.MinScale))
	}
	if v.ZoomStep <= 1 {
		errs = append(errs, fmt.Errorf("viewport.zoomStep must be greater than 1, got %g", v.ZoomStep))
	}
	if v.FitCoverage <= 0 || v.FitCoverage > 1 {
		errs = append(errs, fmt.Errorf("viewport.fitCoverage must be in (0, 1], got %g", v.FitCoverage))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Watch.Interval <= 0 {
		errs = append(errs, fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval))
	}
	if c.StartView != "" && len(c.Maps) > 0 {
		if _, ok := c.Maps[c.StartView]; !ok {
			errs = append(errs, fmt.Errorf("startView %q is not one of the configured maps", c.StartView))
		}
	}
	return errors.Join(errs...)
}

// Limits converts the viewport settings.
func (c *Config) Limits() viewport.Limits {
	return viewport.Limits{
		MinScale:    c.Viewport.MinScale,
		MaxScale:    c.Viewport.MaxScale,
		ZoomStep:    c.Viewport.ZoomStep,
		FitCoverage: c.Viewport.FitCoverage,
	}
}

// ViewNames returns the configured view names with StartView first and the
// rest sorted.
func (c *Config) ViewNames() []string {
	names := make([]string, 0, len(c.Maps))
	for name := range c.Maps {
		if name != c.StartView {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := c.Maps[c.StartView]; ok {
		names = append([]string{c.StartView}, names...)
	}
	return names
}

// MapPath returns the source file for a view, resolved against MapsDir.
func (c *Config) MapPath(name string) (string, bool) {
	file, ok := c.Maps[name]
	if !ok {
		return "", false
	}
	if filepath.IsAbs(file) {
		return file, true
	}
	return filepath.Join(c.MapsDir, file), true
}
