// Package storage locates and persists model files and their sidecar
// thumbnails.
//
// Sidecar layout, for a model at <dir>/<name>:
//
//	<dir>/.ts/<name>.jpg   thumbnail
//	<dir>/.ts/<name>.json  tag metadata
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// DefaultSidecarDir is the per-directory folder holding sidecar files.
	DefaultSidecarDir = ".ts"
	// ThumbnailExt is appended to the model file name for its thumbnail.
	ThumbnailExt = ".jpg"
	// MetadataExt is appended to the model file name for its metadata.
	MetadataExt = ".json"
)

// ErrNotFound is returned when a thumbnail or model does not exist.
var ErrNotFound = errors.New("not found")

// ThumbnailStore holds one thumbnail per model reference.
type ThumbnailStore interface {
	Exists(ref string) (bool, error)
	Read(ref string) ([]byte, error)
	Write(ref string, data []byte) error
}

// ModelSource reads raw model bytes.
type ModelSource interface {
	ReadModel(ref string) ([]byte, error)
}

// Sidecar stores thumbnails next to their models on the local filesystem.
// A reference is the model's file path.
type Sidecar struct {
	Dir string // Sidecar folder name, DefaultSidecarDir if empty
}

// NewSidecar returns a store using the given sidecar folder name.
func NewSidecar(dir string) *Sidecar {
	return &Sidecar{Dir: dir}
}

func (s *Sidecar) dir() string {
	if s.Dir == "" {
		return DefaultSidecarDir
	}
	return s.Dir
}

// SidecarPath returns <dir>/<sidecar>/<name><ext> for the model at ref.
func (s *Sidecar) SidecarPath(ref, ext string) string {
	dir, name := filepath.Split(ref)
	return filepath.Join(dir, s.dir(), name+ext)
}

// ThumbnailPath returns where the thumbnail for ref lives.
func (s *Sidecar) ThumbnailPath(ref string) string {
	return s.SidecarPath(ref, ThumbnailExt)
}

// MetadataPath returns where the tag metadata for ref lives.
func (s *Sidecar) MetadataPath(ref string) string {
	return s.SidecarPath(ref, MetadataExt)
}

// Exists reports whether a thumbnail is stored for ref.
func (s *Sidecar) Exists(ref string) (bool, error) {
	info, err := os.Stat(s.ThumbnailPath(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// Read returns the stored thumbnail for ref.
func (s *Sidecar) Read(ref string) ([]byte, error) {
	data, err := os.ReadFile(s.ThumbnailPath(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("thumbnail for %s: %w", ref, ErrNotFound)
	}
	return data, err
}

// Write stores the thumbnail for ref, replacing any previous one.
// Readers never observe a partially written file.
func (s *Sidecar) Write(ref string, data []byte) error {
	return WriteFileAtomic(s.ThumbnailPath(ref), data)
}

// Files reads models straight from the filesystem.
type Files struct{}

// ReadModel returns the contents of the model file at ref.
func (Files) ReadModel(ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("model %s: %w", ref, ErrNotFound)
	}
	return data, err
}

// WriteFileAtomic writes data to a temporary file in the target directory
// and renames it into place, creating the directory if needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
