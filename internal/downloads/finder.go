// Package downloads finds files in a download folder by the site they
// were downloaded from.
package downloads

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// OriginAttr is the extended attribute browsers on Linux record the source
// URL of a download in
const OriginAttr = "user.xdg.origin.url"

// Match is a downloaded file whose origin matched
type Match struct {
	Path    string    `json:"path"`
	Origin  string    `json:"origin"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Options select which downloads are reported
type Options struct {
	// Domains are exact host names or *.domain patterns. Empty matches
	// every file with a recorded origin.
	Domains []string
	// MinAgeDays skips files modified less than this many days ago.
	MinAgeDays uint32
	Now        time.Time
}

// Finder scans a folder for downloaded files
type Finder struct {
	readOrigin func(path string) (string, error)
}

// NewFinder creates a finder reading origins from extended attributes
func NewFinder() *Finder {
	return &Finder{readOrigin: readOriginAttr}
}

// Find returns the regular files in dir whose origin matches opts, sorted
// by file name
func (f *Finder) Find(dir string, opts Options) ([]Match, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read download folder: %w", err)
	}

	matcher := NewDomainMatcher(opts.Domains)
	cutoff := opts.Now.AddDate(0, 0, -int(opts.MinAgeDays))

	var matches []Match
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		origin, err := f.readOrigin(path)
		if err != nil {
			return nil, err
		}
		if origin == "" {
			continue
		}

		u, err := url.Parse(origin)
		if err != nil || !matcher.Match(u.Hostname()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// removed since ReadDir
			continue
		}
		if opts.MinAgeDays > 0 && info.ModTime().After(cutoff) {
			continue
		}

		matches = append(matches, Match{
			Path:    path,
			Origin:  origin,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return filepath.Base(matches[i].Path) < filepath.Base(matches[j].Path)
	})
	return matches, nil
}

// Delete removes every matched file. All files are attempted; failures are
// joined.
func Delete(matches []Match) error {
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m.Path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// readOriginAttr returns the origin URL of path, or "" if none is recorded
func readOriginAttr(path string) (string, error) {
	buf := make([]byte, 1024)
	for {
		n, err := unix.Getxattr(path, OriginAttr, buf)
		switch {
		case err == nil:
			return strings.TrimRight(string(buf[:n]), "\x00"), nil
		case errors.Is(err, unix.ERANGE):
			buf = make([]byte, len(buf)*4)
		case errors.Is(err, unix.ENODATA), errors.Is(err, unix.ENOTSUP):
			return "", nil
		default:
			return "", fmt.Errorf("failed to read origin of %s: %w", path, err)
		}
	}
}

// DomainMatcher matches host names against domain patterns
type DomainMatcher struct {
	exact    map[string]bool
	suffixes []string
}

// NewDomainMatcher builds a matcher. "example.com" matches that host only;
// "*.example.com" matches example.com and any of its subdomains.
func NewDomainMatcher(patterns []string) *DomainMatcher {
	m := &DomainMatcher{exact: make(map[string]bool)}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(p), "."))
		if apex, ok := strings.CutPrefix(p, "*."); ok {
			m.exact[apex] = true
			m.suffixes = append(m.suffixes, "."+apex)
			continue
		}
		m.exact[p] = true
	}
	return m
}

// Match reports whether host matches any pattern. A matcher without
// patterns matches every host.
func (m *DomainMatcher) Match(host string) bool {
	if len(m.exact) == 0 {
		return true
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if m.exact[host] {
		return true
	}
	for _, s := range m.suffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	return false
}
