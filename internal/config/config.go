// Package config loads the demo player's configuration from a YAML file,
// with overrides from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvListen   = "FRAMESYNC_LISTEN"
	EnvFPS      = "FRAMESYNC_FPS"
	EnvOverlay  = "FRAMESYNC_OVERLAY"
	EnvAutoplay = "FRAMESYNC_AUTOPLAY"
	EnvLogLevel = "FRAMESYNC_LOG_LEVEL"
	EnvLogJSON  = "FRAMESYNC_LOG_JSON"
)

// Config is the complete demo configuration.
type Config struct {
	Listen   string                `yaml:"listen"`   // HTTP control address, empty disables it
	FPS      uint                  `yaml:"fps"`      // render loop rate
	Overlay  bool                  `yaml:"overlay"`  // draw the scanline overlay
	Autoplay string                `yaml:"autoplay"` // source loaded and played at startup
	Bounds   BoundsConfig          `yaml:"bounds"`
	Log      LogConfig             `yaml:"log"`
	Clips    map[string]ClipConfig `yaml:"clips"`
}

// BoundsConfig is the render rectangle videos are fitted into.
type BoundsConfig struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// ClipConfig defines a named synthetic clip.
type ClipConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	FrameRate float64 `yaml:"fps"`
	Frames    int     `yaml:"frames"`
	FailAt    int     `yaml:"fail_at,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:  ":8090",
		FPS:     60,
		Overlay: true,
		Bounds:  BoundsConfig{Width: 640, Height: 480},
		Log:     LogConfig{Level: "info"},
		Clips: map[string]ClipConfig{
			"intro": {Width: 320, Height: 200, FrameRate: 15, Frames: 150},
		},
	}
}

// Load reads path (if not empty) over the defaults, then applies overrides
// from envFile (if it exists) and the process environment, which wins.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	fileEnv := map[string]string{}
	if envFile != "" {
		var err error
		fileEnv, err = godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("failed to read env file: %w", err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings with the values lookup finds.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvListen); ok {
		c.Listen = v
	}
	if v, ok := lookup(EnvAutoplay); ok {
		c.Autoplay = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvFPS); ok {
		fps, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFPS, err)
		}
		c.FPS = uint(fps)
	}
	if v, ok := lookup(EnvOverlay); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOverlay, err)
		}
		c.Overlay = b
	}
	if v, ok := lookup(EnvLogJSON); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogJSON, err)
		}
		c.Log.JSON = b
	}
	return nil
}

// Validate checks the configuration for values the player cannot use.
func (c Config) Validate() error {
	if c.FPS == 0 || c.FPS > 240 {
		return fmt.Errorf("fps must be between 1 and 240, got %d", c.FPS)
	}
	if c.Bounds.Width <= 0 || c.Bounds.Height <= 0 {
		return fmt.Errorf("bounds must have a positive size, got %dx%d", c.Bounds.Width, c.Bounds.Height)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	for name, clip := range c.Clips {
		if clip.Width <= 0 || clip.Height <= 0 {
			return fmt.Errorf("clip %q: size must be positive, got %dx%d", name, clip.Width, clip.Height)
		}
		if clip.FrameRate <= 0 {
			return fmt.Errorf("clip %q: fps must be positive", name)
		}
		if clip.Frames <= 0 {
			return fmt.Errorf("clip %q: frames must be positive", name)
		}
	}
	return nil
}

// SlogLevel maps Level to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", l.Level)
	}
}
