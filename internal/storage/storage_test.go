package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSidecar_Paths(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		ref     string
		wantJPG string
		wantMD  string
	}{
		{
			name:    "default folder",
			ref:     filepath.Join("models", "bracket.stl"),
			wantJPG: filepath.Join("models", ".ts", "bracket.stl.jpg"),
			wantMD:  filepath.Join("models", ".ts", "bracket.stl.json"),
		},
		{
			name:    "custom folder",
			dir:     ".thumbs",
			ref:     filepath.Join("a", "b", "Part 1.STL"),
			wantJPG: filepath.Join("a", "b", ".thumbs", "Part 1.STL.jpg"),
			wantMD:  filepath.Join("a", "b", ".thumbs", "Part 1.STL.json"),
		},
		{
			name:    "bare file name",
			ref:     "gear.stl",
			wantJPG: filepath.Join(".ts", "gear.stl.jpg"),
			wantMD:  filepath.Join(".ts", "gear.stl.json"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSidecar(tt.dir)
			if got := s.ThumbnailPath(tt.ref); got != tt.wantJPG {
				t.Errorf("ThumbnailPath = %q, want %q", got, tt.wantJPG)
			}
			if got := s.MetadataPath(tt.ref); got != tt.wantMD {
				t.Errorf("MetadataPath = %q, want %q", got, tt.wantMD)
			}
		})
	}
}

func TestSidecar_WriteReadExists(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "cube.stl")
	s := NewSidecar("")

	ok, err := s.Exists(ref)
	if err != nil || ok {
		t.Fatalf("Exists before write = %v, %v; want false, nil", ok, err)
	}
	if _, err := s.Read(ref); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read before write: err = %v, want ErrNotFound", err)
	}

	if err := s.Write(ref, []byte("first")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write(ref, []byte("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	ok, err = s.Exists(ref)
	if err != nil || !ok {
		t.Fatalf("Exists after write = %v, %v; want true, nil", ok, err)
	}
	data, err := s.Read(ref)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, []byte("second")) {
		t.Errorf("Read = %q, want %q", data, "second")
	}

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Join(dir, DefaultSidecarDir))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "cube.stl.jpg" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("sidecar folder contains %v, want [cube.stl.jpg]", names)
	}
}

func TestSidecar_DirectoryIsNotAThumbnail(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "odd.stl")
	s := NewSidecar("")
	if err := os.MkdirAll(s.ThumbnailPath(ref), 0755); err != nil {
		t.Fatal(err)
	}

	ok, err := s.Exists(ref)
	if err != nil || ok {
		t.Errorf("Exists = %v, %v; want false, nil", ok, err)
	}
}

func TestFiles_ReadModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.stl")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}

	data, err := Files{}.ReadModel(path)
	if err != nil {
		t.Fatalf("ReadModel failed: %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("ReadModel = %v", data)
	}

	if _, err := (Files{}).ReadModel(filepath.Join(dir, "missing.stl")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing model: err = %v, want ErrNotFound", err)
	}
}

func TestWriteFileAtomic_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x", "y", "z.json")
	if err := WriteFileAtomic(path, []byte("{}")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
}
