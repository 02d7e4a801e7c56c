package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// ResolveFile resolves symlinks and relative segments in path and checks
// that the result is a regular file. Returns the canonical absolute path.
func ResolveFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	resolved = filepath.Clean(resolved)

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("file not accessible: %w", err)
	}

	// Verify it's a regular file (not directory, device, socket, etc.)
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", resolved)
	}

	return resolved, nil
}

// ExpandHome replaces a leading ~ with the home directory of the user who
// invoked the program (the sudo caller when running under sudo).
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home := ""
	if user := os.Getenv("SUDO_USER"); user != "" && IsRoot() {
		home = filepath.Join("/home", user)
	}
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return path
		}
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// GetAvailableSpace returns available space in bytes for the filesystem
// holding dir
func GetAvailableSpace(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("failed to get filesystem stats: %w", err)
	}
	// Available blocks * block size
	return stat.Bavail * uint64(stat.Bsize), nil
}
