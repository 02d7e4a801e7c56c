package volume

import (
	"fmt"

	"github.com/nace/ephem/internal/system"
)

type specKind int

const (
	specSized specKind = iota
	specNamed
	specImage
)

// Spec describes the volume the Creator should produce. Build one with
// Sized, Named or FromImage.
type Spec struct {
	kind      specKind
	sizeMB    uint64
	ttlDays   uint32
	name      string
	imagePath string
}

// Sized is a fresh empty volume whose label encodes an expiry ttlDays
// from now.
func Sized(sizeMB uint64, ttlDays uint32) Spec {
	return Spec{kind: specSized, sizeMB: sizeMB, ttlDays: ttlDays}
}

// Named is a fresh volume with a persistent display name and no expiry.
func Named(name string, sizeMB uint64) Spec {
	return Spec{kind: specNamed, sizeMB: sizeMB, name: name}
}

// FromImage re-attaches an existing image. Its label, and with it the
// original expiry, comes from the image itself.
func FromImage(path string) Spec {
	return Spec{kind: specImage, imagePath: path}
}

// Creator builds, attaches and marks new volumes
type Creator struct {
	backend DiskBackend
	marker  Marker
	clock   Clock
	logger  Logger
}

// NewCreator creates a new creator
func NewCreator(backend DiskBackend, marker Marker, clock Clock, logger Logger) *Creator {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Creator{
		backend: backend,
		marker:  marker,
		clock:   clock,
		logger:  logger,
	}
}

// Label returns the label spec would be created with. FromImage specs
// have no label until the image is opened.
func (c *Creator) Label(spec Spec) (string, error) {
	switch spec.kind {
	case specSized:
		now := c.clock.Now()
		if !ExpiryEncodable(now, spec.ttlDays) {
			return "", fmt.Errorf("%w: %d days from now is past %s", ErrBackendRejected, spec.ttlDays, lastExpiryDay.Format("2006-01-02"))
		}
		return EncodeExpiry(now, spec.ttlDays), nil
	case specNamed:
		label := SanitizeName(spec.name)
		if label == "" {
			return "", fmt.Errorf("%w: volume name %q has no usable characters", ErrBackendRejected, spec.name)
		}
		if _, ok := DecodeExpiry(label); ok {
			return "", fmt.Errorf("%w: volume name %q is reserved for expiring volumes", ErrBackendRejected, spec.name)
		}
		return label, nil
	default:
		return "", nil
	}
}

// Create produces an attached, marked volume. If any step fails
// everything already built is torn down before the error is returned.
func (c *Creator) Create(spec Spec, password []byte) (*Volume, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: a password is required", ErrBackendRejected)
	}
	if spec.kind != specImage && spec.sizeMB == 0 {
		return nil, fmt.Errorf("%w: volume size must be positive", ErrBackendRejected)
	}

	label, err := c.Label(spec)
	if err != nil {
		return nil, err
	}

	cleanup := system.NewCleanupStack()
	defer func() {
		if err := cleanup.Execute(); err != nil {
			c.logger.Warning("Rollback incomplete: %v", err)
		}
	}()

	// Steps 1 and 2: create (or open) the image and attach it
	req := CreateRequest{
		ImagePath: spec.imagePath,
		SizeMB:    spec.sizeMB,
		Label:     label,
		Password:  password,
	}
	if spec.kind == specImage {
		c.logger.Info("Attaching encrypted image %s...", spec.imagePath)
	} else {
		c.logger.Info("Creating encrypted volume %s (%d MB)...", label, spec.sizeMB)
	}
	attached, err := c.backend.Create(req)
	if err != nil {
		return nil, err
	}
	if spec.kind != specImage && attached.ImagePath != "" {
		cleanup.Add("create image", func() error {
			return c.backend.RemoveImage(attached.ImagePath)
		})
	}
	if attached.MountPoint == "" {
		return nil, fmt.Errorf("%w: backend reported no mount point", ErrAttach)
	}
	cleanup.Add("attach", func() error {
		return c.backend.Eject(attached.MountPoint)
	})

	// Step 3: keep the volume out of backups and indexes
	if c.marker != nil {
		c.logger.Info("Securing mounted volume...")
		if err := c.marker.Exclude(attached.MountPoint); err != nil {
			return nil, fmt.Errorf("failed to apply backup exclusion to %s: %w", attached.MountPoint, err)
		}
	}

	cleanup.Clear()

	v := fromAttachment(attached)
	c.logger.Debug("Volume %s mounted at %s", v.Label, v.MountPoint)
	return &v, nil
}

// Discard deletes the backing image of a mounted volume. The data stays
// reachable through the mount until it is ejected, after which it is gone
// for good.
func (c *Creator) Discard(v *Volume) error {
	if v.ImagePath == "" {
		return nil
	}
	if err := c.backend.RemoveImage(v.ImagePath); err != nil {
		return fmt.Errorf("failed to remove image %s: %w", v.ImagePath, err)
	}
	c.logger.Debug("Removed backing image %s", v.ImagePath)
	v.ImagePath = ""
	return nil
}
