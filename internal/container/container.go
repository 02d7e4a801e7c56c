package container

// Container represents an open dm-crypt LUKS container
type Container struct {
	Path       string // Absolute path to the image file, empty if deleted
	Deleted    bool   // Image file was removed while the loop device held it open
	MapperName string // Device mapper name (e.g., ephem_exp_20240108_1a2b3c4d)
	MountPoint string // Where filesystem is mounted
	LoopDevice string // Loop device (e.g., /dev/loop0)
	Filesystem string // ext4, xfs, btrfs
	Size       uint64 // Size in bytes
	Used       uint64 // Used space in bytes
}
