package config

import "flag"

// Flags are the command-line overrides shared by every subcommand.
// Only flags given on the command line override file values.
type Flags struct {
	fs *flag.FlagSet

	config     *string
	debug      *bool
	fov        *float64
	size       *int
	margin     *float64
	overwrite  *bool
	noRotate   *bool
	quality    *int
	pattern    *string
	sidecarDir *string
	logFile    *string
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:         fs,
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		fov:        fs.Float64("fov", 0, "Vertical field of view in degrees"),
		size:       fs.Int("size", 0, "Thumbnail size in pixels"),
		margin:     fs.Float64("margin", 0, "Fraction of the view height the model fills"),
		overwrite:  fs.Bool("overwrite", false, "Regenerate existing thumbnails"),
		noRotate:   fs.Bool("no-rotate", false, "Keep the model's up axis (skip Z-up to Y-up)"),
		quality:    fs.Int("quality", 0, "JPEG quality (1-100)"),
		pattern:    fs.String("pattern", "", "Glob for model files"),
		sidecarDir: fs.String("sidecar-dir", "", "Sidecar folder name"),
		logFile:    fs.String("log-file", "", "Write logs to this file as well"),
	}
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply copies every flag given on the command line into cfg.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if set["debug"] && *f.debug {
		cfg.Logging.Level = "debug"
	}
	if set["fov"] {
		cfg.Thumbnail.FOV = *f.fov
	}
	if set["size"] {
		cfg.Thumbnail.Size = *f.size
	}
	if set["margin"] {
		cfg.Thumbnail.Margin = *f.margin
	}
	if set["overwrite"] {
		cfg.Thumbnail.Overwrite = *f.overwrite
	}
	if set["no-rotate"] {
		cfg.Thumbnail.RotateZUp = !*f.noRotate
	}
	if set["quality"] {
		cfg.Thumbnail.Quality = *f.quality
	}
	if set["pattern"] {
		cfg.Scan.Pattern = *f.pattern
	}
	if set["sidecar-dir"] {
		cfg.Scan.SidecarDir = *f.sidecarDir
	}
	if set["log-file"] {
		cfg.Logging.LogFile = *f.logFile
	}
}
