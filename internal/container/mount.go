package container

import (
	"fmt"
	"os"

	"github.com/nace/ephem/internal/system"
)

// Filesystem label length limits
var fsLabelLimits = map[string]int{
	"ext4":  16,
	"xfs":   12,
	"btrfs": 255,
}

// SupportedFilesystem reports whether fsType can be created and mounted
func SupportedFilesystem(fsType string) bool {
	_, ok := fsLabelLimits[fsType]
	return ok
}

// MountManager handles filesystem mount operations
type MountManager struct {
	executor *system.Executor
}

// NewMountManager creates a new mount manager
func NewMountManager(executor *system.Executor) *MountManager {
	return &MountManager{
		executor: executor,
	}
}

// Mount mounts a device to a mount point with nodev,nosuid
func (m *MountManager) Mount(device, mountPoint string) error {
	if err := os.MkdirAll(mountPoint, 0700); err != nil {
		return fmt.Errorf("failed to create mount point: %w", err)
	}

	err := m.executor.Run("mount", "-o", "nodev,nosuid", device, mountPoint)
	if err != nil {
		return fmt.Errorf("failed to mount %s to %s: %w", device, mountPoint, err)
	}

	return nil
}

// Unmount unmounts a mount point
func (m *MountManager) Unmount(mountPoint string, force bool) error {
	if !force {
		return m.executor.Run("umount", mountPoint)
	}

	// Try normal unmount first
	if err := m.executor.Run("umount", mountPoint); err == nil {
		return nil
	}

	// Try force unmount
	if err := m.executor.Run("umount", "-f", mountPoint); err == nil {
		return nil
	}

	// Try lazy unmount as last resort
	return m.executor.Run("umount", "-l", mountPoint)
}

// MakeFilesystem creates a filesystem on a device
func (m *MountManager) MakeFilesystem(device, fsType, label string) error {
	limit, ok := fsLabelLimits[fsType]
	if !ok {
		return fmt.Errorf("unsupported filesystem: %s", fsType)
	}
	if len(label) > limit {
		label = label[:limit]
	}

	switch fsType {
	case "ext4":
		return m.executor.Run("mkfs.ext4", "-q", "-L", label, device)
	case "xfs":
		return m.executor.Run("mkfs.xfs", "-q", "-L", label, device)
	default:
		return m.executor.Run("mkfs.btrfs", "-q", "-L", label, device)
	}
}

// GetFilesystemSize gets the size and usage of a mounted filesystem
func (m *MountManager) GetFilesystemSize(mountPoint string) (size uint64, used uint64, err error) {
	output, err := m.executor.RunOutput("df", "--block-size=1", mountPoint)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get filesystem size: %w", err)
	}
	return system.ParseDf(output)
}
