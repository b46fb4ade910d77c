package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/stlthumb/internal/config"
	"github.com/Faultbox/stlthumb/internal/metadata"
	"github.com/Faultbox/stlthumb/internal/scan"
	"github.com/Faultbox/stlthumb/internal/tui"
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// sidecarFile pairs a model with its metadata; md is nil when none exists yet.
type sidecarFile struct {
	model string
	path  string
	md    *metadata.Metadata
}

func cmdTags(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: stlthumb tags list|add|remove|suggest [options] <dir>")
	}
	sub := args[0]

	c, flags := newCommand("tags " + sub)
	var add, remove stringList
	c.fs.Var(&add, "tag", "Tag title to add (repeatable)")
	c.fs.Var(&remove, "untag", "Tag title to remove (repeatable)")
	dryRun := c.fs.Bool("n", false, "Only show what would change")
	if err := c.parse(flags, args[1:]); err != nil {
		return err
	}

	root := "."
	if c.fs.NArg() > 0 {
		root = c.fs.Arg(0)
	}
	files, err := c.loadSidecars(root)
	if err != nil {
		return err
	}
	all := make([]*metadata.Metadata, len(files))
	for i, f := range files {
		all[i] = f.md
	}

	switch sub {
	case "list", "ls":
		for _, t := range metadata.UniqueTags(all) {
			fmt.Println(tui.Tag(t.Title, t.DisplayColor(), t.DisplayTextColor()))
		}
		return nil
	case "suggest":
		if c.fs.NArg() < 2 {
			return fmt.Errorf("usage: stlthumb tags suggest <dir> <partial>")
		}
		for _, s := range metadata.Suggest(all, c.fs.Arg(1)) {
			fmt.Println(s)
		}
		return nil
	case "add":
		return c.editTags(files, add, nil, *dryRun)
	case "remove", "rm":
		if len(remove) == 0 {
			remove = add
		}
		return c.editTags(files, nil, remove, *dryRun)
	case "edit":
		return c.editTags(files, add, remove, *dryRun)
	default:
		return fmt.Errorf("unknown tags command: %s", sub)
	}
}

// loadSidecars scans root and loads the metadata next to every model.
func (c *command) loadSidecars(root string) ([]sidecarFile, error) {
	fsys := scan.OSFS{Root: root}
	found, err := (scan.Scanner{FS: fsys, SkipDir: c.cfg.Scan.SidecarDir}).Scan(".", c.cfg.Scan.Pattern)
	if err != nil {
		return nil, err
	}

	side := c.sidecar()
	files := make([]sidecarFile, 0, len(found))
	for _, f := range found {
		model := fsys.NativePath(f.FSPath)
		path := side.MetadataPath(model)
		md, err := metadata.Load(path)
		if err != nil {
			return nil, err
		}
		files = append(files, sidecarFile{model: model, path: path, md: md})
	}
	return files, nil
}

func (c *command) editTags(files []sidecarFile, add, remove []string, dryRun bool) error {
	if len(add) == 0 && len(remove) == 0 {
		return fmt.Errorf("nothing to do: give -tag and/or -untag")
	}

	all := make([]*metadata.Metadata, len(files))
	for i, f := range files {
		all[i] = f.md
	}
	change := metadata.Preview(all, add, remove)
	out, err := yaml.Marshal(map[string]any{
		"files":  change.Files,
		"add":    change.Add,
		"remove": change.Remove,
	})
	if err != nil {
		return err
	}
	fmt.Print(tui.DimStyle.Render(string(out)))
	if dryRun || change.Files == 0 {
		return nil
	}

	updated := 0
	for _, f := range files {
		md := f.md
		if md == nil {
			md = &metadata.Metadata{}
		}
		if md.RemoveTags(remove...)+md.AddTags(add...) == 0 {
			continue
		}
		if err := metadata.Save(f.path, md); err != nil {
			return err
		}
		c.log.Debug("Metadata saved", zap.String("model", f.model), zap.String("path", f.path))
		updated++
	}
	fmt.Fprintf(os.Stderr, "Updated %d files\n", updated)
	return nil
}

func cmdConfig(args []string) error {
	c, flags := newCommand("config")
	save := c.fs.Bool("save", false, "Write the effective config to the user config dir")
	if err := c.parse(flags, args); err != nil {
		return err
	}
	data, err := c.cfg.Marshal()
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	if *save {
		if err := c.cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved to", filepath.Join(config.ConfigDir(), config.FileName))
	}
	return nil
}
