// Package config loads imgcat settings from TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/termgfx/termimg"
)

const (
	appName        = "termimg"
	configFileName = "config.toml"
	localFileName  = "termimg.toml"

	defaultHTTPTimeout = 30 // seconds
)

type Config struct {
	Protocol        string          `koanf:"protocol"`         // "auto", "kitty", "sixel", "iterm2", "halfblock"
	HTTPTimeout     int             `koanf:"http_timeout"`     // seconds (default: 30)
	TmuxPassthrough string          `koanf:"tmux_passthrough"` // "off", "on", "auto" (default: "off")
	Sixel           SixelConfig     `koanf:"sixel"`
	Halfblock       HalfblockConfig `koanf:"halfblock"`
}

// SixelConfig holds Sixel encoder settings.
type SixelConfig struct {
	Palette string `koanf:"palette"` // "cube" or "adaptive" (default: "cube")
	Colors  int    `koanf:"colors"`  // adaptive palette size, 2-256 (default: 256)
	Dither  bool   `koanf:"dither"`  // Stucki dithering for the adaptive palette
}

// HalfblockConfig holds ANSI fallback settings.
type HalfblockConfig struct {
	Mosaic bool `koanf:"mosaic"`
	Dither bool `koanf:"dither"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		Protocol:        termimg.Auto,
		HTTPTimeout:     defaultHTTPTimeout,
		TmuxPassthrough: "off",
		Sixel: SixelConfig{
			Palette: "cube",
			Colors:  256,
		},
	}
}

// Load reads the config files in order of priority (last wins). When
// explicit is set only that file is read, and it must exist.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	paths := getConfigPaths()
	if explicit != "" {
		explicit = expandPath(explicit)
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		paths = []string{explicit}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. $XDG_CONFIG_HOME/termimg/config.toml (and XDG_CONFIG_DIRS)
	if path, err := xdg.SearchConfigFile(filepath.Join(appName, configFileName)); err == nil {
		paths = append(paths, path)
	}

	// 2. ./termimg.toml (pwd, highest priority)
	paths = append(paths, localFileName)

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func (c *Config) normalize() {
	c.Protocol = strings.ToLower(strings.TrimSpace(c.Protocol))
	if c.Protocol == "" {
		c.Protocol = termimg.Auto
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	c.Sixel.Palette = strings.ToLower(strings.TrimSpace(c.Sixel.Palette))
	if c.Sixel.Colors <= 0 || c.Sixel.Colors > 256 {
		c.Sixel.Colors = 256
	} else if c.Sixel.Colors < 2 {
		c.Sixel.Colors = 2
	}
}

// Timeout returns the HTTP download timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// SixelOptions converts the Sixel section to encoder options.
func (c *Config) SixelOptions() (termimg.SixelOptions, error) {
	opts := termimg.SixelOptions{
		Colors: c.Sixel.Colors,
		Dither: c.Sixel.Dither,
	}
	switch c.Sixel.Palette {
	case "", "cube":
		opts.Palette = termimg.PaletteCube
	case "adaptive":
		opts.Palette = termimg.PaletteAdaptive
	default:
		return opts, fmt.Errorf("invalid sixel palette: %s. valid options: cube, adaptive", c.Sixel.Palette)
	}
	return opts, nil
}

// Apply copies the settings onto r.
func (c *Config) Apply(r *termimg.Renderer) error {
	mode, err := termimg.ParsePassthroughMode(c.TmuxPassthrough)
	if err != nil {
		return err
	}
	sixelOpts, err := c.SixelOptions()
	if err != nil {
		return err
	}

	r.Loader = termimg.NewLoader(c.Timeout())
	r.Passthrough = mode
	r.Sixel = sixelOpts
	r.Halfblock = termimg.HalfblockOptions{
		Mosaic: c.Halfblock.Mosaic,
		Dither: c.Halfblock.Dither,
	}
	return nil
}
