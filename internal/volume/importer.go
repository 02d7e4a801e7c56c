package volume

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const mib = 1024 * 1024

// ImportOptions tune how an archive is turned into a volume
type ImportOptions struct {
	TTLDays   uint32
	KeepImage bool
	// Name, when set, creates a named volume instead of an expiring one.
	Name string
	// SizeFactor multiplies the uncompressed size estimate. Values below
	// 1 are treated as 1.
	SizeFactor float64
	// ExtraSizeMB is added on top of the scaled estimate.
	ExtraSizeMB uint64
}

// Importer turns an encrypted archive into a mounted volume holding its
// contents.
type Importer struct {
	creator  *Creator
	archiver Archiver
	logger   Logger
}

// NewImporter creates a new importer
func NewImporter(creator *Creator, archiver Archiver, logger Logger) *Importer {
	if logger == nil {
		logger = NopLogger()
	}
	return &Importer{
		creator:  creator,
		archiver: archiver,
		logger:   logger,
	}
}

// EstimateSizeMB converts an uncompressed byte count into a volume size
// in megabytes with the configured safety margin.
func EstimateSizeMB(uncompressed uint64, factor float64, extraMB uint64) uint64 {
	if factor < 1 {
		factor = 1
	}
	scaled := math.Ceil(float64(uncompressed) * factor / mib)
	return uint64(scaled) + extraMB
}

// Import creates a volume sized for archivePath and extracts the archive
// into it using password for both. When extraction fails the mounted
// volume is returned together with the error and its image is kept so the
// operator can inspect it or retry.
func (i *Importer) Import(archivePath string, password []byte, opts ImportOptions) (*Volume, error) {
	absPath, err := filepath.Abs(archivePath)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access archive: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("source archive is not a file: %s", absPath)
	}

	uncompressed, err := i.archiver.UncompressedSize(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate archive size: %w", err)
	}
	sizeMB := EstimateSizeMB(uncompressed, opts.SizeFactor, opts.ExtraSizeMB)
	if sizeMB == 0 {
		sizeMB = 1
	}
	i.logger.Debug("Archive %s unpacks to %d bytes, sizing volume at %d MB", absPath, uncompressed, sizeMB)

	spec := Sized(sizeMB, opts.TTLDays)
	if opts.Name != "" {
		spec = Named(opts.Name, sizeMB)
	}

	v, err := i.creator.Create(spec, password)
	if err != nil {
		return nil, err
	}

	i.logger.Info("Extracting %s...", filepath.Base(absPath))
	if err := i.archiver.Extract(absPath, password, v.MountPoint); err != nil {
		return v, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	if !opts.KeepImage {
		if err := i.creator.Discard(v); err != nil {
			return v, err
		}
	}

	return v, nil
}
