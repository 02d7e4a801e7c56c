package archive

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/volume"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create zip: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	return path
}

func TestUncompressedSizeZip(t *testing.T) {
	path := writeZip(t, map[string]string{
		"a.txt":     strings.Repeat("a", 1000),
		"dir/b.txt": strings.Repeat("b", 24),
	})

	s := NewSevenZip(system.NewExecutor(false))
	// the 7z binary is never needed for zip archives
	s.binary = "ephem-test-missing-7z"

	got, err := s.UncompressedSize(path)
	if err != nil {
		t.Fatalf("UncompressedSize() error = %v", err)
	}
	if got != 1024 {
		t.Errorf("UncompressedSize() = %d, want 1024", got)
	}
}

func TestUncompressedSizeMissingTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.7z")
	if err := os.WriteFile(path, []byte("not a zip"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewSevenZip(system.NewExecutor(false))
	s.binary = "ephem-test-missing-7z"

	_, err := s.UncompressedSize(path)
	if !errors.Is(err, volume.ErrBackendUnavailable) {
		t.Errorf("UncompressedSize() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestExtractMissingTool(t *testing.T) {
	s := NewSevenZip(system.NewExecutor(false))
	s.binary = "ephem-test-missing-7z"

	err := s.Extract("archive.7z", []byte("pw"), t.TempDir())
	if !errors.Is(err, volume.ErrBackendUnavailable) {
		t.Errorf("Extract() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestExtractWrongPassword(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// stand-in for 7z that fails the way 7z does on a bad password
	dir := t.TempDir()
	fake := filepath.Join(dir, "7z")
	script := "#!/bin/sh\necho 'ERROR: Wrong password : secret.txt'\nexit 2\n"
	if err := os.WriteFile(fake, []byte(script), 0700); err != nil {
		t.Fatal(err)
	}

	s := NewSevenZip(system.NewExecutor(false))
	s.binary = fake

	err := s.Extract("archive.7z", []byte("nope"), t.TempDir())
	if !errors.Is(err, volume.ErrWrongPassword) {
		t.Errorf("Extract() error = %v, want ErrWrongPassword", err)
	}
}

func TestWrongPassword(t *testing.T) {
	if !wrongPassword("ERROR: Wrong password : file.txt") {
		t.Error("wrongPassword() missed 7z wrong password message")
	}
	if wrongPassword("Everything is Ok") {
		t.Error("wrongPassword() matched a successful run")
	}
}
