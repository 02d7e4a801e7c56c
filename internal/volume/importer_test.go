package volume

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handover.zip")
	if err := os.WriteFile(path, []byte("PK"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newImportFixture(t *testing.T) (*fakeBackend, *fakeArchiver, *Importer) {
	t.Helper()
	backend := newFakeBackend(t.TempDir())
	archiver := &fakeArchiver{
		password: "correct horse",
		size:     5 * mib,
		files: map[string]string{
			"readme.txt":         "hello",
			"keys/prod/id.pem":   "-----BEGIN-----",
			"keys/staging/x.txt": "x",
		},
	}
	creator := NewCreator(backend, &fakeMarker{}, &fixedClock{now: day("2024-01-01")}, nil)
	return backend, archiver, NewImporter(creator, archiver, nil)
}

func TestImport(t *testing.T) {
	backend, archiver, importer := newImportFixture(t)

	v, err := importer.Import(writeArchive(t), []byte("correct horse"), ImportOptions{TTLDays: 3})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	for name, want := range archiver.files {
		got, err := os.ReadFile(filepath.Join(v.MountPoint, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if v.Label != "exp_20240104" {
		t.Errorf("Label = %q, want %q", v.Label, "exp_20240104")
	}
	if v.ImagePath != "" {
		t.Errorf("ImagePath = %q, want discarded", v.ImagePath)
	}
	if len(backend.images) != 0 {
		t.Errorf("images = %v, want none", backend.images)
	}
	if _, ok := backend.attached[v.MountPoint]; !ok {
		t.Error("volume not left mounted")
	}
}

func TestImportKeepImage(t *testing.T) {
	backend, _, importer := newImportFixture(t)

	v, err := importer.Import(writeArchive(t), []byte("correct horse"), ImportOptions{TTLDays: 3, KeepImage: true})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if v.ImagePath == "" || !backend.images[v.ImagePath] {
		t.Errorf("image %q not kept", v.ImagePath)
	}
}

func TestImportNamed(t *testing.T) {
	_, _, importer := newImportFixture(t)

	v, err := importer.Import(writeArchive(t), []byte("correct horse"), ImportOptions{TTLDays: 3, Name: "handover"})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if v.Label != "handover" || v.Expiry != nil {
		t.Errorf("got label %q expiry %v, want named volume", v.Label, v.Expiry)
	}
}

func TestImportWrongPasswordLeavesVolume(t *testing.T) {
	for _, keep := range []bool{false, true} {
		backend, _, importer := newImportFixture(t)

		v, err := importer.Import(writeArchive(t), []byte("wrong"), ImportOptions{TTLDays: 3, KeepImage: keep})
		if !errors.Is(err, ErrExtractionFailed) {
			t.Fatalf("keep=%v: Import() error = %v, want ErrExtractionFailed", keep, err)
		}
		if !errors.Is(err, ErrWrongPassword) {
			t.Errorf("keep=%v: Import() error = %v, want ErrWrongPassword in chain", keep, err)
		}
		if v == nil {
			t.Fatalf("keep=%v: Import() returned no volume", keep)
		}
		if _, ok := backend.attached[v.MountPoint]; !ok {
			t.Errorf("keep=%v: volume was ejected", keep)
		}
		if v.ImagePath == "" || !backend.images[v.ImagePath] {
			t.Errorf("keep=%v: image %q was removed", keep, v.ImagePath)
		}
		if len(backend.removed) != 0 {
			t.Errorf("keep=%v: removed = %v, want none", keep, backend.removed)
		}
	}
}

func TestImportRejectsMissingArchive(t *testing.T) {
	backend, _, importer := newImportFixture(t)

	_, err := importer.Import(filepath.Join(t.TempDir(), "nope.zip"), []byte("correct horse"), ImportOptions{})
	if err == nil {
		t.Fatal("Import() error = nil, want failure")
	}
	if len(backend.attached) != 0 || len(backend.images) != 0 {
		t.Error("volume created for a missing archive")
	}
}

func TestImportRejectsDirectory(t *testing.T) {
	backend, _, importer := newImportFixture(t)

	if _, err := importer.Import(t.TempDir(), []byte("correct horse"), ImportOptions{}); err == nil {
		t.Fatal("Import() error = nil, want failure")
	}
	if len(backend.attached) != 0 {
		t.Error("volume created for a directory")
	}
}

func TestImportSizeEstimateFailure(t *testing.T) {
	backend, archiver, importer := newImportFixture(t)
	archiver.sizeErr = errors.New("not an archive")

	if _, err := importer.Import(writeArchive(t), []byte("correct horse"), ImportOptions{}); err == nil {
		t.Fatal("Import() error = nil, want failure")
	}
	if len(backend.attached) != 0 {
		t.Error("volume created despite size estimate failure")
	}
}

func TestEstimateSizeMB(t *testing.T) {
	tests := []struct {
		name   string
		bytes  uint64
		factor float64
		extra  uint64
		want   uint64
	}{
		{"empty archive", 0, 1.1, 100, 100},
		{"exact megabytes", 10 * mib, 1, 0, 10},
		{"rounds up", 10*mib + 1, 1, 0, 11},
		{"factor applied", 100 * mib, 1.5, 20, 170},
		{"factor below one clamps", 10 * mib, 0.5, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateSizeMB(tt.bytes, tt.factor, tt.extra); got != tt.want {
				t.Errorf("EstimateSizeMB() = %d, want %d", got, tt.want)
			}
		})
	}
}
