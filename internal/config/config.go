// Package config loads ephem's YAML configuration file.
//
// Values are resolved in this order, later sources winning: built-in
// defaults, the YAML file, EPHEM_SECTION_FIELD environment variables and
// finally command line flags (applied by the cli package).
package config

// Config is the complete ephem configuration
type Config struct {
	Volume    VolumeConfig    `yaml:"volume"`
	Import    ImportConfig    `yaml:"import"`
	Eject     EjectConfig     `yaml:"eject"`
	Cron      CronConfig      `yaml:"cron"`
	Downloads DownloadsConfig `yaml:"downloads"`
}

// VolumeConfig controls how new volumes are created
type VolumeConfig struct {
	// Days is the default time to live of a new volume.
	Days uint32 `yaml:"days"`

	// SizeMB is the default capacity of a new volume in MiB.
	SizeMB uint64 `yaml:"size_mb"`

	// Filesystem is one of ext4, xfs or btrfs.
	Filesystem string `yaml:"filesystem"`

	// ImageDir holds the encrypted image files.
	ImageDir string `yaml:"image_dir"`

	// MountRoot is the directory volumes are mounted under.
	MountRoot string `yaml:"mount_root"`
}

// ImportConfig controls how archive sizes are turned into volume sizes
type ImportConfig struct {
	ExtraSizeMB uint64  `yaml:"extra_size_mb"`
	SizeFactor  float64 `yaml:"size_factor"`
}

// EjectConfig controls eject behavior
type EjectConfig struct {
	// Force falls back to umount -f and umount -l on busy volumes.
	Force bool `yaml:"force"`
}

// CronConfig controls the installed cleanup job
type CronConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule string `yaml:"schedule"`
}

// DownloadsConfig controls find-downloads
type DownloadsConfig struct {
	Dir     string   `yaml:"dir"`
	Domains []string `yaml:"domains"`
}
