// Package scan finds model files below a root directory.
package scan

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Faultbox/stlthumb/internal/storage"
)

// DefaultPattern matches binary STL files in any directory.
const DefaultPattern = "*.stl"

// ErrBadPattern is returned for a malformed glob.
var ErrBadPattern = errors.New("invalid glob pattern")

// FS is the directory access a scan needs.
// Paths are slash separated and relative to the FS root; "" or "." is the root.
type FS interface {
	ListEntries(dir string) ([]string, error)
	IsDirectory(p string) (bool, error)
	OpenFile(p string) (io.ReadCloser, error)
}

// OSFS exposes a directory of the local filesystem.
type OSFS struct {
	Root string
}

func (f OSFS) native(p string) string {
	return filepath.Join(f.Root, filepath.FromSlash(p))
}

// ListEntries returns the names in dir, sorted.
func (f OSFS) ListEntries(dir string) ([]string, error) {
	entries, err := os.ReadDir(f.native(dir))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// IsDirectory reports whether p is a directory. Symlinks are followed.
func (f OSFS) IsDirectory(p string) (bool, error) {
	info, err := os.Stat(f.native(p))
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// OpenFile opens p for reading.
func (f OSFS) OpenFile(p string) (io.ReadCloser, error) {
	return os.Open(f.native(p))
}

// NativePath returns the OS path for a scanned file.
func (f OSFS) NativePath(p string) string {
	return f.native(p)
}

// File is one match.
type File struct {
	Path   string // Slash-separated path relative to the scan root
	Name   string // Base name
	Dir    string // Parent directory relative to the scan root
	FSPath string // Path within the FS
}

// Matcher tests relative paths against a glob, ignoring case.
// A pattern without a slash is matched against the base name only, so
// "*.stl" finds files at any depth.
type Matcher struct {
	pattern  string
	baseOnly bool
}

// NewMatcher compiles a glob. Supported syntax: * ? [...] {a,b} and **.
func NewMatcher(pattern string) (*Matcher, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	p := strings.ToLower(pattern)
	if !doublestar.ValidatePattern(p) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	return &Matcher{pattern: p, baseOnly: !strings.Contains(p, "/")}, nil
}

// Match reports whether the relative path rel matches.
func (m *Matcher) Match(rel string) bool {
	target := strings.ToLower(rel)
	if m.baseOnly {
		target = path.Base(target)
	}
	ok, err := doublestar.Match(m.pattern, target)
	return err == nil && ok
}

// Scanner walks an FS.
type Scanner struct {
	FS      FS
	SkipDir string // Directory name never descended into
}

// Scan walks fsys from root and returns every file matching pattern,
// skipping sidecar folders. Results are ordered by path.
func Scan(fsys FS, root, pattern string) ([]File, error) {
	s := Scanner{FS: fsys, SkipDir: storage.DefaultSidecarDir}
	return s.Scan(root, pattern)
}

// Scan walks from root and returns matching files ordered by path.
func (s Scanner) Scan(root, pattern string) ([]File, error) {
	m, err := NewMatcher(pattern)
	if err != nil {
		return nil, err
	}

	root = path.Clean(filepath.ToSlash(root))
	var files []File
	if err := s.walk(root, "", m, &files); err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// walk visits dir (FS path); rel is the same directory relative to the scan root.
func (s Scanner) walk(dir, rel string, m *Matcher, out *[]File) error {
	names, err := s.FS.ListEntries(dir)
	if err != nil {
		return fmt.Errorf("listing %q: %w", dir, err)
	}

	for _, name := range names {
		full := path.Join(dir, name)
		relPath := path.Join(rel, name)

		isDir, err := s.FS.IsDirectory(full)
		if errors.Is(err, fs.ErrNotExist) {
			// Dangling symlink or removed mid-scan.
			continue
		}
		if err != nil {
			return fmt.Errorf("inspecting %q: %w", full, err)
		}
		if isDir {
			if s.SkipDir != "" && name == s.SkipDir {
				continue
			}
			if err := s.walk(full, relPath, m, out); err != nil {
				return err
			}
			continue
		}

		if m.Match(relPath) {
			*out = append(*out, File{Path: relPath, Name: name, Dir: rel, FSPath: full})
		}
	}
	return nil
}
