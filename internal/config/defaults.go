package config

// Default values for configuration fields.
const (
	DefaultDays        = 7
	DefaultSizeMB      = 100
	DefaultFilesystem  = "ext4"
	DefaultImageDir    = "/var/tmp"
	DefaultMountRoot   = "/run/ephem"
	DefaultExtraSizeMB = 100
	DefaultSizeFactor  = 1.1
	DefaultSchedule    = "0 * * * *"
	DefaultDownloads   = "~/Downloads"

	// MaxDays bounds volume.days well inside the range expiry labels can encode.
	MaxDays = 36500
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Volume.Days == 0 {
		cfg.Volume.Days = DefaultDays
	}
	if cfg.Volume.SizeMB == 0 {
		cfg.Volume.SizeMB = DefaultSizeMB
	}
	if cfg.Volume.Filesystem == "" {
		cfg.Volume.Filesystem = DefaultFilesystem
	}
	if cfg.Volume.ImageDir == "" {
		cfg.Volume.ImageDir = DefaultImageDir
	}
	if cfg.Volume.MountRoot == "" {
		cfg.Volume.MountRoot = DefaultMountRoot
	}

	if cfg.Import.ExtraSizeMB == 0 {
		cfg.Import.ExtraSizeMB = DefaultExtraSizeMB
	}
	if cfg.Import.SizeFactor == 0 {
		cfg.Import.SizeFactor = DefaultSizeFactor
	}

	if cfg.Cron.Schedule == "" {
		cfg.Cron.Schedule = DefaultSchedule
	}

	if cfg.Downloads.Dir == "" {
		cfg.Downloads.Dir = DefaultDownloads
	}
}
