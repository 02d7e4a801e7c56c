package volume

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Scanner derives the volume registry from the live backend. It holds no
// state between calls.
type Scanner struct {
	backend DiskBackend
}

// NewScanner creates a new scanner
func NewScanner(backend DiskBackend) *Scanner {
	return &Scanner{backend: backend}
}

// Scan lists every attached managed volume, ordered by mount point
func (s *Scanner) Scan() ([]Volume, error) {
	attached, err := s.backend.ListAttached()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate volumes: %w", err)
	}

	volumes := make([]Volume, 0, len(attached))
	for _, a := range attached {
		volumes = append(volumes, fromAttachment(a))
	}

	sort.SliceStable(volumes, func(i, j int) bool {
		return volumes[i].MountPoint < volumes[j].MountPoint
	})

	return volumes, nil
}

// Find returns the volume whose mount point or image path matches target,
// or nil if none does.
func (s *Scanner) Find(target string) (*Volume, error) {
	volumes, err := s.Scan()
	if err != nil {
		return nil, err
	}

	for _, v := range volumes {
		if MatchesTarget(v, target) {
			return &v, nil
		}
	}

	return nil, nil
}

// MatchesTarget reports whether target names v's mount point, backing
// image or mapper device. Relative paths and symlinks in target are
// resolved first.
func MatchesTarget(v Volume, target string) bool {
	if target == "" {
		return false
	}
	candidates := []string{target}
	if abs, err := filepath.Abs(target); err == nil {
		candidates = append(candidates, abs)
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			candidates = append(candidates, resolved)
		}
	}

	for _, c := range candidates {
		if c == v.MountPoint || (v.ImagePath != "" && c == v.ImagePath) || (v.Device != "" && c == v.Device) {
			return true
		}
	}
	return false
}

func fromAttachment(a Attachment) Volume {
	v := Volume{
		MountPoint: a.MountPoint,
		ImagePath:  a.ImagePath,
		Label:      a.Label,
		Device:     a.Device,
		Filesystem: a.Filesystem,
		Size:       a.Size,
		Used:       a.Used,
	}
	if expiry, ok := DecodeExpiry(a.Label); ok {
		v.Expiry = &expiry
	}
	return v
}
