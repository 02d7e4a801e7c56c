package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for one configuration field
type FieldError struct {
	// Field is the dotted path of the field (e.g. "volume.size_mb").
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error found in a configuration
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

var filesystems = map[string]bool{
	"ext4":  true,
	"xfs":   true,
	"btrfs": true,
}

// Validate checks cfg and returns a ValidationError listing every problem
func Validate(cfg *Config) error {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Volume.Days == 0 {
		add("volume.days", "must be at least 1")
	} else if cfg.Volume.Days > MaxDays {
		add("volume.days", "must be at most %d, got %d", MaxDays, cfg.Volume.Days)
	}
	if cfg.Volume.SizeMB == 0 {
		add("volume.size_mb", "must be positive")
	}
	if !filesystems[cfg.Volume.Filesystem] {
		add("volume.filesystem", "unsupported filesystem %q (use ext4, xfs, or btrfs)", cfg.Volume.Filesystem)
	}
	if cfg.Volume.ImageDir == "" {
		add("volume.image_dir", "is required")
	}
	if !filepath.IsAbs(cfg.Volume.MountRoot) {
		add("volume.mount_root", "must be an absolute path, got %q", cfg.Volume.MountRoot)
	}

	if cfg.Import.SizeFactor < 1 {
		add("import.size_factor", "must be at least 1, got %g", cfg.Import.SizeFactor)
	}

	if _, err := cron.ParseStandard(cfg.Cron.Schedule); err != nil {
		add("cron.schedule", "invalid cron expression %q: %v", cfg.Cron.Schedule, err)
	}

	for _, d := range cfg.Downloads.Domains {
		if strings.TrimPrefix(d, "*.") == "" || strings.ContainsAny(d, "/ ") {
			add("downloads.domains", "invalid domain pattern %q", d)
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
