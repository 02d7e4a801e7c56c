package system

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSizeMB converts a size string (100, 100M, 1G, 1.5GiB) to megabytes.
// A bare number is taken as megabytes.
func ParseSizeMB(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid size format: empty (use format like 100, 100M, 1G)")
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}

	// Single letter suffixes mean binary units, as with dd and losetup.
	upper := strings.ToUpper(s)
	if last := upper[len(upper)-1]; strings.ContainsRune("KMGT", rune(last)) {
		s = s + "iB"
	}
	bytes, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %s (use format like 100, 100M, 1G)", s)
	}
	mb := bytes / (1024 * 1024)
	if bytes%(1024*1024) != 0 {
		mb++
	}
	return mb, nil
}

// FormatSize converts bytes to human-readable format
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// ParseDmsetupTable extracts backing device from dmsetup table output
// Format: "0 sectors crypt cipher key iv_offset backing_device offset ..."
func ParseDmsetupTable(output string) (string, error) {
	fields := strings.Fields(output)
	if len(fields) < 7 {
		return "", fmt.Errorf("invalid dmsetup table format")
	}
	return fields[6], nil
}

// ParseDmsetupList extracts mapper names from `dmsetup ls` output
// Format: "mapper_name    (major, minor)" or "No devices found"
func ParseDmsetupList(output string) []string {
	var mappers []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "No devices found") {
			continue
		}
		if parts := strings.Fields(line); len(parts) > 0 {
			mappers = append(mappers, parts[0])
		}
	}
	return mappers
}

// ParseDf parses `df --block-size=1 <path>` output into size and used bytes
func ParseDf(output string) (size uint64, used uint64, err error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		return 0, 0, fmt.Errorf("invalid df output")
	}

	fields := strings.Fields(lines[1])
	if len(fields) < 3 {
		return 0, 0, fmt.Errorf("invalid df output format")
	}

	if size, err = strconv.ParseUint(fields[1], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid df size %q: %w", fields[1], err)
	}
	if used, err = strconv.ParseUint(fields[2], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid df used %q: %w", fields[2], err)
	}
	return size, used, nil
}

// ParseLuksDumpLabel extracts the LUKS2 label from `cryptsetup luksDump`
// Format: "Label:          exp_20240108" ("(no label)" when unset)
func ParseLuksDumpLabel(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Label:") {
			continue
		}
		label := strings.TrimSpace(strings.TrimPrefix(line, "Label:"))
		if label == "(no label)" {
			return ""
		}
		return label
	}
	return ""
}

// Parse7zListingSize extracts the total uncompressed size from `7z l`
// output. The last line summarises the archive:
// "2024-01-01 10:00:00            1048576       524288  3 files"
func Parse7zListingSize(output string) (uint64, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		return 0, fmt.Errorf("empty 7z listing")
	}
	last := strings.TrimSpace(lines[len(lines)-1])
	if !strings.Contains(last, "file") {
		return 0, fmt.Errorf("invalid 7z listing summary: %q", last)
	}
	fields := strings.Fields(last)

	// The date columns are blank for some archive types, so take the first
	// purely numeric field.
	for _, f := range fields {
		if n, err := strconv.ParseUint(f, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("invalid 7z listing summary: %q", last)
}
