package container

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/volume"
)

// luksHeaderMB is reserved on top of the requested capacity for the LUKS2
// header and keyslots.
const luksHeaderMB = 16

const mib = 1024 * 1024

// maxImageSizeMB keeps the image size in bytes within an int64.
const maxImageSizeMB = math.MaxInt64/mib - luksHeaderMB

// BackendOptions configure where images and mount points live
type BackendOptions struct {
	ImageDir   string
	MountRoot  string
	Filesystem string
	// ForceUnmount retries a busy unmount with umount -f, then umount -l.
	ForceUnmount bool
}

// Backend implements volume.DiskBackend with LUKS2 images on loop devices
type Backend struct {
	opts      BackendOptions
	executor  *system.Executor
	loop      *LoopManager
	luks      *LUKSManager
	mounts    *MountManager
	discovery *Discovery
}

// NewBackend creates a new LUKS backend
func NewBackend(executor *system.Executor, opts BackendOptions) *Backend {
	if opts.Filesystem == "" {
		opts.Filesystem = "ext4"
	}
	return &Backend{
		opts:      opts,
		executor:  executor,
		loop:      NewLoopManager(executor),
		luks:      NewLUKSManager(executor),
		mounts:    NewMountManager(executor),
		discovery: NewDiscovery(executor),
	}
}

var _ volume.DiskBackend = (*Backend)(nil)

// WithForceUnmount returns a copy of b that ejects busy volumes with
// umount -f and umount -l
func (b *Backend) WithForceUnmount(force bool) *Backend {
	c := *b
	c.opts.ForceUnmount = force
	return &c
}

// CheckDependencies checks for required system commands
func (b *Backend) CheckDependencies() error {
	deps := []string{
		"cryptsetup",
		"losetup",
		"mount",
		"umount",
		"dmsetup",
		"df",
	}
	if err := b.executor.CheckDependencies(deps); err != nil {
		return fmt.Errorf("%w: %v", volume.ErrBackendUnavailable, err)
	}
	return nil
}

// Create builds a new image, or opens an existing one, and mounts it.
// Every step registers its undo so a failure leaves nothing attached and
// no fresh image behind.
func (b *Backend) Create(req volume.CreateRequest) (_ volume.Attachment, err error) {
	if err := b.CheckDependencies(); err != nil {
		return volume.Attachment{}, err
	}

	cleanup := system.NewCleanupStack()
	defer func() {
		if rerr := cleanup.Execute(); rerr != nil && err != nil {
			err = fmt.Errorf("%w (rollback incomplete: %v)", err, rerr)
		}
	}()

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	label := req.Label
	path := req.ImagePath
	fresh := path == ""

	if fresh {
		if !SupportedFilesystem(b.opts.Filesystem) {
			return volume.Attachment{}, fmt.Errorf("%w: unsupported filesystem: %s (use ext4, xfs, or btrfs)", volume.ErrBackendRejected, b.opts.Filesystem)
		}
		mkfsTool := "mkfs." + b.opts.Filesystem
		if !b.executor.CommandExists(mkfsTool) {
			return volume.Attachment{}, fmt.Errorf("%w: filesystem tool not found: %s", volume.ErrBackendUnavailable, mkfsTool)
		}

		// Step 1: Create sparse image with secure permissions
		path, err = b.createImage(id, label, req.SizeMB)
		if err != nil {
			return volume.Attachment{}, err
		}
		cleanup.Add("create image", func() error {
			return os.Remove(path)
		})

		// Step 2: Format as LUKS
		if err := b.luks.Format(path, label, req.Password); err != nil {
			return volume.Attachment{}, fmt.Errorf("%w: %v", volume.ErrBackendRejected, err)
		}
	} else {
		existing, err := b.openExisting(path)
		if err != nil {
			return volume.Attachment{}, err
		}
		path = existing.path
		label = existing.label
	}

	// Step 3: Attach loop device
	loopDev, err := b.loop.Attach(path)
	if err != nil {
		return volume.Attachment{}, fmt.Errorf("%w: %v", volume.ErrAttach, err)
	}
	cleanup.Add("attach loop device", func() error {
		return b.loop.Detach(loopDev)
	})

	// Step 4: Open LUKS container
	mapperName := GenerateMapperName(label, id[:8])
	if err := b.luks.Open(loopDev, mapperName, req.Password); err != nil {
		return volume.Attachment{}, fmt.Errorf("%w: %v", volume.ErrBackendRejected, err)
	}
	cleanup.Add("open LUKS container", func() error {
		return b.luks.Close(mapperName)
	})

	// Step 5: Create filesystem
	mapperDevice := "/dev/mapper/" + mapperName
	if fresh {
		if err := b.mounts.MakeFilesystem(mapperDevice, b.opts.Filesystem, label); err != nil {
			return volume.Attachment{}, fmt.Errorf("%w: %v", volume.ErrBackendRejected, err)
		}
	}

	// Step 6: Mount filesystem
	mountPoint := filepath.Join(b.opts.MountRoot, MountDirName(mapperName))
	if err := b.mounts.Mount(mapperDevice, mountPoint); err != nil {
		os.Remove(mountPoint)
		return volume.Attachment{}, fmt.Errorf("%w: %v", volume.ErrAttach, err)
	}
	cleanup.Add("mount", func() error {
		if err := b.mounts.Unmount(mountPoint, true); err != nil {
			return err
		}
		return os.Remove(mountPoint)
	})

	// Hand the volume root to the sudo caller so it is usable without root
	if uid, gid, ok := system.InvokingUser(); ok {
		if err := os.Chown(mountPoint, uid, gid); err != nil {
			return volume.Attachment{}, fmt.Errorf("failed to hand mount point to uid %d: %w", uid, err)
		}
	}

	cleanup.Clear()

	return volume.Attachment{
		MountPoint: mountPoint,
		ImagePath:  path,
		Label:      label,
		Device:     mapperDevice,
		Filesystem: b.opts.Filesystem,
	}, nil
}

func (b *Backend) createImage(id, label string, sizeMB uint64) (string, error) {
	if sizeMB > maxImageSizeMB {
		return "", fmt.Errorf("%w: volume size %d MB is too large", volume.ErrBackendRejected, sizeMB)
	}
	if err := os.MkdirAll(b.opts.ImageDir, 0700); err != nil {
		return "", fmt.Errorf("%w: failed to create image directory: %v", volume.ErrBackendRejected, err)
	}

	sizeBytes := (sizeMB + luksHeaderMB) * mib
	if available, err := system.GetAvailableSpace(b.opts.ImageDir); err == nil && sizeBytes > available {
		return "", fmt.Errorf("%w: insufficient disk space in %s: need %s, available %s",
			volume.ErrBackendRejected, b.opts.ImageDir, system.FormatSize(sizeBytes), system.FormatSize(available))
	}

	path := filepath.Join(b.opts.ImageDir, fmt.Sprintf("ephem-%s-%s.img", id, label))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create image: %v", volume.ErrBackendRejected, err)
	}
	if err := file.Truncate(int64(sizeBytes)); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: failed to set image size: %v", volume.ErrBackendRejected, err)
	}
	file.Close()

	return path, nil
}

type existingImage struct {
	path  string
	label string
}

func (b *Backend) openExisting(path string) (existingImage, error) {
	resolved, err := system.ResolveFile(path)
	if err != nil {
		return existingImage{}, fmt.Errorf("%w: %v", volume.ErrBackendRejected, err)
	}
	if !b.luks.IsLUKS(resolved) {
		return existingImage{}, fmt.Errorf("%w: not a LUKS container: %s", volume.ErrBackendRejected, resolved)
	}

	attached, err := b.discovery.FindByPath(resolved)
	if err != nil {
		return existingImage{}, fmt.Errorf("%w: %v", volume.ErrBackendUnavailable, err)
	}
	if attached != nil {
		return existingImage{}, fmt.Errorf("%w: image already attached at %s", volume.ErrBackendRejected, attached.MountPoint)
	}

	label, err := b.luks.Label(resolved)
	if err != nil {
		return existingImage{}, fmt.Errorf("%w: %v", volume.ErrBackendRejected, err)
	}
	if label == "" {
		// images not made by ephem: fall back to the file name
		label = volume.SanitizeName(strings.TrimSuffix(filepath.Base(resolved), filepath.Ext(resolved)))
	}

	return existingImage{path: resolved, label: label}, nil
}

// ListAttached returns every open ephem volume
func (b *Backend) ListAttached() ([]volume.Attachment, error) {
	if err := b.CheckDependencies(); err != nil {
		return nil, err
	}

	containers, err := b.discovery.DiscoverManaged()
	if err != nil {
		if errors.Is(err, system.ErrCommandNotFound) {
			return nil, fmt.Errorf("%w: %v", volume.ErrBackendUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", volume.ErrBackendRejected, err)
	}

	attachments := make([]volume.Attachment, 0, len(containers))
	for _, c := range containers {
		label, _ := ParseMapperName(c.MapperName)
		attachments = append(attachments, volume.Attachment{
			MountPoint: c.MountPoint,
			ImagePath:  c.Path,
			Label:      label,
			Device:     "/dev/mapper/" + c.MapperName,
			Filesystem: c.Filesystem,
			Size:       c.Size,
			Used:       c.Used,
		})
	}
	return attachments, nil
}

// Eject unmounts and closes the volume mounted at target. target may also
// be the mapper device of a volume that is open but not mounted.
func (b *Backend) Eject(target string) error {
	cont, err := b.discovery.FindByTarget(target)
	if err != nil {
		return err
	}
	if cont == nil {
		return fmt.Errorf("no open volume at %s", target)
	}

	// Step 1: Unmount filesystem (if mounted)
	if cont.MountPoint != "" {
		if err := b.mounts.Unmount(cont.MountPoint, b.opts.ForceUnmount); err != nil {
			return fmt.Errorf("failed to unmount: %w", err)
		}
		// only remove directories ephem created
		if filepath.Dir(cont.MountPoint) == filepath.Clean(b.opts.MountRoot) {
			os.Remove(cont.MountPoint)
		}
	}

	// Step 2: Close LUKS container
	if err := b.luks.Close(cont.MapperName); err != nil {
		return err
	}

	// Step 3: Detach loop device
	if cont.LoopDevice != "" {
		if err := b.loop.Detach(cont.LoopDevice); err != nil {
			return fmt.Errorf("volume closed but %w", err)
		}
	}

	return nil
}

// RemoveImage deletes an image file
func (b *Backend) RemoveImage(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
