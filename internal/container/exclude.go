package container

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// cacheDirTag is the signature defined by https://bford.info/cachedir/
const cacheDirTag = `Signature: 8a477f597d28d172789f06886806bc55
# This file is a cache directory tag created by ephem.
# The volume is ephemeral and must not be backed up.
`

var robotsAttrs = []string{
	"user.xdg.robots.backup",
	"user.xdg.robots.index",
}

// BackupExcluder marks a mount point so that backup and indexing tools
// skip it
type BackupExcluder struct{}

// NewBackupExcluder creates a new excluder
func NewBackupExcluder() *BackupExcluder {
	return &BackupExcluder{}
}

// Exclude writes CACHEDIR.TAG and .nobackup into mountPoint and sets the
// xdg robots attributes on it. Filesystems without user xattr support
// only get the files.
func (e *BackupExcluder) Exclude(mountPoint string) error {
	if err := os.WriteFile(filepath.Join(mountPoint, "CACHEDIR.TAG"), []byte(cacheDirTag), 0644); err != nil {
		return fmt.Errorf("failed to write CACHEDIR.TAG: %w", err)
	}
	if err := os.WriteFile(filepath.Join(mountPoint, ".nobackup"), nil, 0644); err != nil {
		return fmt.Errorf("failed to write .nobackup: %w", err)
	}

	for _, attr := range robotsAttrs {
		err := unix.Setxattr(mountPoint, attr, []byte("false"), 0)
		if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", attr, err)
		}
	}
	return nil
}
