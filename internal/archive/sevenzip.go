package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/volume"
)

// SevenZip reads and unpacks archives with the 7z command line tool
type SevenZip struct {
	executor *system.Executor
	binary   string
}

// NewSevenZip creates a new 7z archiver
func NewSevenZip(executor *system.Executor) *SevenZip {
	return &SevenZip{
		executor: executor,
		binary:   "7z",
	}
}

var _ volume.Archiver = (*SevenZip)(nil)

// UncompressedSize returns the total size of the archive's entries. Zip
// central directories are read directly, which also works for encrypted
// entries; everything else is listed by 7z.
func (s *SevenZip) UncompressedSize(path string) (uint64, error) {
	if size, ok := zipSize(path); ok {
		return size, nil
	}

	output, err := s.executor.RunOutput(s.binary, "l", path)
	if err != nil {
		return 0, s.wrap(err)
	}
	size, err := system.Parse7zListingSize(output)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", volume.ErrBackendRejected, err)
	}
	return size, nil
}

// zipSize sums the uncompressed sizes from a zip central directory. The
// second result is false if path is not a readable zip archive.
func zipSize(path string) (uint64, bool) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return 0, false
	}
	defer r.Close()

	var total uint64
	for _, f := range r.File {
		total += f.UncompressedSize64
	}
	return total, true
}

// Extract tests the archive with password and unpacks it into dest
func (s *SevenZip) Extract(path string, password []byte, dest string) error {
	pass := "-p" + string(password)

	if _, err := s.executor.RunOutput(s.binary, "t", pass, path); err != nil {
		return s.wrap(err)
	}

	if _, err := s.executor.RunOutput(s.binary, "x", pass, "-y", "-o"+dest, path); err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *SevenZip) wrap(err error) error {
	if errors.Is(err, system.ErrCommandNotFound) {
		return fmt.Errorf("%w: %v", volume.ErrBackendUnavailable, err)
	}
	var cmdErr *system.CommandError
	if errors.As(err, &cmdErr) && wrongPassword(cmdErr.Stdout+cmdErr.Stderr) {
		return volume.ErrWrongPassword
	}
	return err
}

func wrongPassword(output string) bool {
	return strings.Contains(output, "Wrong password")
}
