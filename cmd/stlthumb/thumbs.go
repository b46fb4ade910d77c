package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/internal/scan"
	"github.com/Faultbox/stlthumb/internal/storage"
	"github.com/Faultbox/stlthumb/internal/thumbnail"
	"github.com/Faultbox/stlthumb/internal/tui"
)

// fileStore stores every thumbnail at one fixed path, for "thumb -o".
type fileStore struct {
	path string
}

func (s fileStore) Exists(string) (bool, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s fileStore) Read(string) ([]byte, error) { return os.ReadFile(s.path) }

func (s fileStore) Write(_ string, data []byte) error {
	return storage.WriteFileAtomic(s.path, data)
}

func cmdThumb(ctx context.Context, args []string) error {
	c, flags := newCommand("thumb")
	output := c.fs.String("o", "", "Output JPEG (default: sidecar folder next to the model)")
	if err := c.parse(flags, args); err != nil {
		return err
	}
	if err := c.need(1, "thumb [-o out.jpg] <file.stl>"); err != nil {
		return err
	}

	ref := c.fs.Arg(0)
	var thumbs storage.ThumbnailStore = c.sidecar()
	dest := c.sidecar().ThumbnailPath(ref)
	if *output != "" {
		thumbs = fileStore{path: *output}
		dest = *output
	}

	outcome, err := c.generator(thumbs, c.log).Generate(ctx, ref, c.cfg.Thumbnail.Overwrite)
	if err != nil {
		return err
	}
	switch outcome {
	case thumbnail.OutcomeWritten:
		fmt.Printf("Written: %s\n", dest)
	default:
		fmt.Printf("Exists:  %s (use -overwrite to regenerate)\n", dest)
	}
	return nil
}

func cmdBatch(ctx context.Context, args []string) error {
	c, flags := newCommand("batch")
	plain := c.fs.Bool("plain", false, "Print one line per file instead of a progress bar")
	if err := c.parse(flags, args); err != nil {
		return err
	}
	root := "."
	if c.fs.NArg() > 0 {
		root = c.fs.Arg(0)
	}

	fsys := scan.OSFS{Root: root}
	files, err := (scan.Scanner{FS: fsys, SkipDir: c.cfg.Scan.SidecarDir}).Scan(".", c.cfg.Scan.Pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No files matching %q below %s\n", c.cfg.Scan.Pattern, root)
		return nil
	}

	refs := make([]string, len(files))
	for i, f := range files {
		refs[i] = fsys.NativePath(f.FSPath)
	}
	c.log.Info("Starting batch",
		zap.String("root", root),
		zap.String("pattern", c.cfg.Scan.Pattern),
		zap.Int("files", len(refs)),
		zap.Bool("overwrite", c.cfg.Thumbnail.Overwrite))

	var report thumbnail.Report
	if stdoutIsTerminal() && !*plain {
		// Console logging would tear the progress view; keep only the file sink.
		fileLog, err := logger.New(logger.Options{
			Level: c.cfg.Logging.Level,
			File:  logFile(c.cfg.Logging.LogFile),
		})
		if err != nil {
			return err
		}
		defer fileLog.Sync()
		report, err = tui.RunBatch(ctx, c.generator(c.sidecar(), fileLog), refs, c.cfg.Thumbnail.Overwrite, os.Stdout)
		if err != nil {
			return err
		}
	} else {
		report = c.generator(c.sidecar(), c.log).Batch(ctx, refs, c.cfg.Thumbnail.Overwrite, tui.PlainProgress(os.Stdout))
	}

	fmt.Println(tui.Summary(report))

	if report.Canceled {
		return report.Cause
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(report.Failed), len(refs))
	}
	return nil
}

func logFile(path string) logger.FileConfig {
	if path == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(path)
}

func cmdSearch(args []string) error {
	c, flags := newCommand("search")
	limit := c.fs.Int("n", 50, "Limit results (0 = all)")
	if err := c.parse(flags, args); err != nil {
		return err
	}
	if err := c.need(2, "search <dir> <query>"); err != nil {
		return err
	}

	files, err := (scan.Scanner{FS: scan.OSFS{Root: c.fs.Arg(0)}, SkipDir: c.cfg.Scan.SidecarDir}).Scan(".", c.cfg.Scan.Pattern)
	if err != nil {
		return err
	}
	hits := scan.Search(files, strings.Join(c.fs.Args()[1:], " "), *limit)
	if len(hits) == 0 {
		fmt.Fprintln(os.Stderr, "No files found")
		return nil
	}
	for _, h := range hits {
		fmt.Println(highlight(h.Path, h.Matched))
	}
	fmt.Fprintf(os.Stderr, "\n(%d of %d files matched)\n", len(hits), len(files))
	return nil
}

// highlight emphasises the matched byte offsets of s.
func highlight(s string, matched []int) string {
	at := make(map[int]bool, len(matched))
	for _, i := range matched {
		at[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if at[i] {
			b.WriteString(tui.TitleStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
