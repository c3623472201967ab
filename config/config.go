// Package config loads and saves the chredit configuration file.
package config

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"chredit/log"
	"chredit/sheet"
)

type PaletteConfig struct {
	Colors [4]string `toml:"colors"`
}

type SheetConfig struct {
	Columns int `toml:"columns"`
	Zoom    int `toml:"zoom"`
}

type GeneralConfig struct {
	RememberRecent bool `toml:"remember_recent"`
}

type Config struct {
	Palette PaletteConfig `toml:"palette"`
	Sheet   SheetConfig   `toml:"sheet"`
	General GeneralConfig `toml:"general"`
}

const DefaultFileMode = os.FileMode(0755)

// Dir returns the chredit configuration directory, creating it if needed.
var Dir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModConfig.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "chredit")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModConfig.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

var Default = Config{
	Palette: PaletteConfig{
		Colors: [4]string{"#000000", "#ff0000", "#0000ff", "#ffffff"},
	},
	Sheet: SheetConfig{
		Columns: 16,
		Zoom:    2,
	},
	General: GeneralConfig{
		RememberRecent: true,
	},
}

const cfgFilename = "config.toml"

// Path returns the path of the configuration file.
func Path() string {
	return filepath.Join(Dir(), cfgFilename)
}

// LoadOrDefault loads the configuration from the chredit config directory,
// or provide a default one.
func LoadOrDefault() Config {
	cfg, err := Load(Path())
	if err != nil {
		if !os.IsNotExist(err) {
			log.ModConfig.Warnf("using default configuration: %v", err)
		}
		return Default
	}
	return cfg
}

// Load reads the configuration at path. Missing keys take their default
// value.
func Load(path string) (Config, error) {
	cfg := Default
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	for _, key := range md.Undecoded() {
		log.ModConfig.WithField("key", key.String()).Warn("unknown configuration key")
	}
	if _, err := cfg.SheetPalette(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg at path.
func Save(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}

// SheetPalette returns the configured palette.
func (cfg Config) SheetPalette() (sheet.Palette, error) {
	var pal sheet.Palette
	for i, s := range cfg.Palette.Colors {
		c, err := parseHexColor(s)
		if err != nil {
			return pal, fmt.Errorf("palette color %d: %w", i, err)
		}
		pal[i] = c
	}
	return pal, nil
}

// parseHexColor parses a #rrggbb color.
func parseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q, want #rrggbb", s)
	}
	rgb, err := hex.DecodeString(s[1:])
	if err != nil {
		return c, fmt.Errorf("invalid color %q: %v", s, err)
	}
	c.R, c.G, c.B = rgb[0], rgb[1], rgb[2]
	return c, nil
}

// HexColor formats c as #rrggbb.
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
