// stlthumb generates framed JPEG thumbnails for binary STL models and
// manages their sidecar tags.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/config"
	"github.com/Faultbox/stlthumb/internal/engine/render"
	"github.com/Faultbox/stlthumb/internal/framing"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/internal/storage"
	"github.com/Faultbox/stlthumb/internal/thumbnail"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "ascii":
		err = cmdASCII(args)
	case "frame":
		err = cmdFrame(args)
	case "thumb":
		err = cmdThumb(ctx, args)
	case "batch":
		err = cmdBatch(ctx, args)
	case "search", "find":
		err = cmdSearch(args)
	case "tags":
		err = cmdTags(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`stlthumb - STL thumbnail generator

Usage:
  stlthumb <command> [options]

Commands:
  info <file.stl>                     Show triangle count, bounds and area
  ascii <file.stl>                    Print the model as ASCII STL
  frame <file.stl>                    Show the computed camera framing
  thumb <file.stl>                    Generate one thumbnail
  batch <dir>                         Generate thumbnails for every model below dir
  search <dir> <query>                Fuzzy-find models by path
  tags list|add|remove|edit <dir>     Manage sidecar tags
  tags suggest <dir> <partial>        Complete a tag title
  config                              Print the effective configuration

Common options:
  -config <file>   Config file (default ./stlthumb.yaml, then the user config dir)
  -fov, -size, -margin, -quality, -overwrite, -no-rotate
  -pattern, -sidecar-dir, -log-file, -debug

Examples:
  stlthumb info benchy.stl
  stlthumb thumb -size 256 -o benchy.jpg benchy.stl
  stlthumb batch -pattern "**/*.stl" ./models
  stlthumb tags add -tag printed -tag pla ./models/boats`)
}

// command is the state every subcommand starts from.
type command struct {
	fs  *flag.FlagSet
	cfg *config.Config
	log *zap.Logger
}

// newCommand creates the flag set for name with the shared overrides bound.
// Callers add their own flags, then call parse.
func newCommand(name string) (*command, *config.Flags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &command{fs: fs}, config.BindFlags(fs)
}

// parse parses args, loads the config and initialises logging.
func (c *command) parse(flags *config.Flags, args []string) error {
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, stderrIsTerminal()); err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	c.cfg = cfg
	c.log = logger.Log
	c.log.Debug("Config loaded", zap.Any("config", cfg))
	return nil
}

// need fails with usage when fewer than n positional arguments were given.
func (c *command) need(n int, usage string) error {
	if c.fs.NArg() < n {
		return fmt.Errorf("usage: stlthumb %s", usage)
	}
	return nil
}

func (c *command) framingOptions() framing.Options {
	return framing.Options{
		FOVDegrees:     c.cfg.Thumbnail.FOV,
		Margin:         c.cfg.Thumbnail.Margin,
		RotateZUpToYUp: c.cfg.Thumbnail.RotateZUp,
	}
}

func (c *command) renderer() *render.Software {
	r := render.NewSoftware()
	r.Supersample = c.cfg.Thumbnail.Supersample
	r.Quality = c.cfg.Thumbnail.Quality
	return r
}

func (c *command) sidecar() *storage.Sidecar {
	return storage.NewSidecar(c.cfg.Scan.SidecarDir)
}

// generator wires a thumbnail generator from the config. Colours were
// checked by config.Validate.
func (c *command) generator(thumbs storage.ThumbnailStore, log *zap.Logger) *thumbnail.Generator {
	bg, _ := render.ParseHexColor(c.cfg.Thumbnail.Background)
	fg, _ := render.ParseHexColor(c.cfg.Thumbnail.ModelColor)
	opts := thumbnail.Options{
		Framing:    c.framingOptions(),
		Size:       c.cfg.Thumbnail.Size,
		Background: bg,
		Color:      fg,
	}
	return thumbnail.NewGenerator(storage.Files{}, thumbs, c.renderer(), opts, log)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
