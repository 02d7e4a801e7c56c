package volume

import (
	"regexp"
	"time"
)

// Status values reported by Volume.Status
const (
	StatusExpired = "expired"
	StatusActive  = "active"
	StatusNamed   = "named"
)

// Volume is a mounted, encrypted, managed volume
type Volume struct {
	MountPoint string     `json:"mount_point"`
	ImagePath  string     `json:"image_path,omitempty"` // empty once the image was discarded
	Label      string     `json:"label"`
	Expiry     *time.Time `json:"expiry,omitempty"` // nil for named volumes
	Device     string     `json:"device,omitempty"`
	Filesystem string     `json:"filesystem,omitempty"`
	Size       uint64     `json:"size,omitempty"`
	Used       uint64     `json:"used,omitempty"`
}

// Expired reports whether the volume carries an expiry that is at or
// before now. Named volumes never expire.
func (v Volume) Expired(now time.Time) bool {
	return v.Expiry != nil && !v.Expiry.After(now)
}

// Status classifies the volume at now.
func (v Volume) Status(now time.Time) string {
	switch {
	case v.Expiry == nil:
		return StatusNamed
	case v.Expired(now):
		return StatusExpired
	default:
		return StatusActive
	}
}

// Attachment is what a DiskBackend reports for an attached volume
type Attachment struct {
	MountPoint string
	ImagePath  string
	Label      string
	Device     string
	Filesystem string
	Size       uint64
	Used       uint64
}

// CreateRequest asks a DiskBackend for a new attached volume. When
// ImagePath is set the image already exists and is only attached; SizeMB
// and Label are ignored in that case and the label stored in the image is
// used instead.
type CreateRequest struct {
	ImagePath string
	SizeMB    uint64
	Label     string
	Password  []byte
}

// DiskBackend creates, enumerates and detaches encrypted disk images.
type DiskBackend interface {
	// Create builds (or opens) the image and attaches it. On error the
	// backend must not leave anything attached.
	Create(req CreateRequest) (Attachment, error)
	// ListAttached returns every attached managed volume, or an error if
	// enumeration failed. Partial lists are never returned.
	ListAttached() ([]Attachment, error)
	// Eject detaches the volume mounted at target. For a volume that is
	// open but not mounted, target is its Device.
	Eject(target string) error
	// RemoveImage deletes an image file. Safe to call while attached.
	RemoveImage(path string) error
}

// Archiver extracts password protected archives
type Archiver interface {
	UncompressedSize(path string) (uint64, error)
	Extract(path string, password []byte, dest string) error
}

// Marker applies the backup exclusion marker to a fresh mount point
type Marker interface {
	Exclude(mountPoint string) error
}

// Clock returns the current time. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Logger receives progress messages. *ui.Logger satisfies it.
type Logger interface {
	Info(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Warning(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) Warning(string, ...interface{}) {}

// NopLogger discards all messages.
func NopLogger() Logger { return nopLogger{} }

var nameDisallowed = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// maxNameLen keeps labels within the LUKS2 header label and the
// device-mapper name limits once the backend adds its prefix and suffix.
const maxNameLen = 32

// SanitizeName maps a display name onto the label alphabet: dots, dashes
// and spaces become underscores, anything else outside [A-Za-z0-9_] is
// dropped, and the result is capped at 32 characters.
func SanitizeName(name string) string {
	mapped := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '.', '-', ' ':
			r = '_'
		}
		mapped = append(mapped, r)
	}
	clean := nameDisallowed.ReplaceAllString(string(mapped), "")
	if len(clean) > maxNameLen {
		clean = clean[:maxNameLen]
	}
	return clean
}
