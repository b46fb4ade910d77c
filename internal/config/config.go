// Package config handles stlthumb configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/stlthumb/internal/engine/render"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/internal/scan"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Scan      ScanConfig      `yaml:"scan"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ThumbnailConfig holds framing and rendering settings.
type ThumbnailConfig struct {
	FOV         float64 `yaml:"fov"`         // Vertical field of view, degrees
	Size        int     `yaml:"size"`        // Output edge length, pixels
	Margin      float64 `yaml:"margin"`      // Fraction of the view height the model fills
	Overwrite   bool    `yaml:"overwrite"`   // Regenerate existing thumbnails
	RotateZUp   bool    `yaml:"rotate_z_up"` // Turn Z-up models to Y-up
	Supersample int     `yaml:"supersample"` // Internal resolution multiplier
	Quality     int     `yaml:"quality"`     // JPEG quality
	Background  string  `yaml:"background"`  // #rrggbb
	ModelColor  string  `yaml:"model_color"` // #rrggbb
}

// ScanConfig holds file discovery settings.
type ScanConfig struct {
	Pattern    string `yaml:"pattern"`     // Glob, matched case-insensitively
	SidecarDir string `yaml:"sidecar_dir"` // Folder holding thumbnails and metadata
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Thumbnail: ThumbnailConfig{
			FOV:         35,
			Size:        500,
			Margin:      0.9,
			Overwrite:   false,
			RotateZUp:   true,
			Supersample: 2,
			Quality:     90,
			Background:  "#ffffff",
			ModelColor:  "#999999",
		},
		Scan: ScanConfig{
			Pattern:    "*.stl",
			SidecarDir: ".ts",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	t := c.Thumbnail
	switch {
	case !(t.FOV > 0 && t.FOV < 180):
		return fmt.Errorf("%w: thumbnail.fov %v must be between 0 and 180", ErrInvalid, t.FOV)
	case t.Size <= 0 || t.Size > 8192:
		return fmt.Errorf("%w: thumbnail.size %d must be between 1 and 8192", ErrInvalid, t.Size)
	case !(t.Margin > 0 && t.Margin <= 1):
		return fmt.Errorf("%w: thumbnail.margin %v must be in (0, 1]", ErrInvalid, t.Margin)
	case t.Supersample < 1 || t.Supersample > 4:
		return fmt.Errorf("%w: thumbnail.supersample %d must be between 1 and 4", ErrInvalid, t.Supersample)
	case t.Quality < 1 || t.Quality > 100:
		return fmt.Errorf("%w: thumbnail.quality %d must be between 1 and 100", ErrInvalid, t.Quality)
	}
	if _, err := render.ParseHexColor(t.Background); err != nil {
		return fmt.Errorf("%w: thumbnail.background: %v", ErrInvalid, err)
	}
	if _, err := render.ParseHexColor(t.ModelColor); err != nil {
		return fmt.Errorf("%w: thumbnail.model_color: %v", ErrInvalid, err)
	}

	if _, err := scan.NewMatcher(c.Scan.Pattern); err != nil {
		return fmt.Errorf("%w: scan.pattern: %v", ErrInvalid, err)
	}
	if d := c.Scan.SidecarDir; d == "" || d == "." || d == ".." || strings.ContainsAny(d, `/\`) {
		return fmt.Errorf("%w: scan.sidecar_dir %q must be a plain folder name", ErrInvalid, d)
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalid, err)
	}
	return nil
}
