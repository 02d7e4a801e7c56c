package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nace/ephem/internal/system"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every error Load returns
var ErrInvalid = errors.New("invalid configuration")

// DefaultPath returns $XDG_CONFIG_HOME/ephem/config.yaml, falling back to
// ~/.config of the invoking user.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = system.ExpandHome("~/.config")
	}
	return filepath.Join(base, "ephem", "config.yaml")
}

// Load reads the configuration at path, applies defaults and environment
// overrides, and validates the result. A missing file is not an error
// unless explicit is set.
func Load(path string, explicit bool) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %q: %v", ErrInvalid, path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("%w: failed to read %q: %v", ErrInvalid, path, err)
	}

	ApplyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg, os.Getenv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies EPHEM_SECTION_FIELD variables. Unlike empty
// values, unparsable values are reported.
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	var errs []error

	str := func(key string, dst *string) {
		if val := getenv(key); val != "" {
			*dst = val
		}
	}
	uint32v := func(key string, dst *uint32) {
		if val := getenv(key); val != "" {
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a number", key, val))
				return
			}
			*dst = uint32(n)
		}
	}
	uint64v := func(key string, dst *uint64) {
		if val := getenv(key); val != "" {
			n, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a number", key, val))
				return
			}
			*dst = n
		}
	}

	// Volume overrides
	uint32v("EPHEM_VOLUME_DAYS", &cfg.Volume.Days)
	uint64v("EPHEM_VOLUME_SIZE_MB", &cfg.Volume.SizeMB)
	str("EPHEM_VOLUME_FILESYSTEM", &cfg.Volume.Filesystem)
	str("EPHEM_VOLUME_IMAGE_DIR", &cfg.Volume.ImageDir)
	str("EPHEM_VOLUME_MOUNT_ROOT", &cfg.Volume.MountRoot)

	// Import overrides
	uint64v("EPHEM_IMPORT_EXTRA_SIZE_MB", &cfg.Import.ExtraSizeMB)
	if val := getenv("EPHEM_IMPORT_SIZE_FACTOR"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("EPHEM_IMPORT_SIZE_FACTOR: %q is not a number", val))
		} else {
			cfg.Import.SizeFactor = f
		}
	}

	// Eject overrides
	if val := getenv("EPHEM_EJECT_FORCE"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("EPHEM_EJECT_FORCE: %q is not a boolean", val))
		} else {
			cfg.Eject.Force = b
		}
	}

	// Cron overrides
	str("EPHEM_CRON_SCHEDULE", &cfg.Cron.Schedule)

	// Downloads overrides
	str("EPHEM_DOWNLOADS_DIR", &cfg.Downloads.Dir)
	if val := getenv("EPHEM_DOWNLOADS_DOMAINS"); val != "" {
		cfg.Downloads.Domains = splitList(val)
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
