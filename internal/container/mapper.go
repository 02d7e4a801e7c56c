package container

import (
	"regexp"
	"strings"
)

// MapperPrefix marks device-mapper names owned by ephem. Crypt devices
// without it (the system's own LUKS volumes) are never listed or ejected.
const MapperPrefix = "ephem_"

var (
	mapperDisallowed = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	mapperSuffix     = regexp.MustCompile(`_[0-9a-f]{8}$`)
)

// GenerateMapperName builds the dm-crypt name for a volume:
// ephem_<label>_<id>. The id keeps two volumes with the same label (two
// volumes created on the same day for the same ttl) apart.
func GenerateMapperName(label, id string) string {
	name := strings.ReplaceAll(label, ".", "_")
	name = strings.ReplaceAll(name, "-", "_")
	name = mapperDisallowed.ReplaceAllString(name, "")
	return MapperPrefix + name + "_" + id
}

// ParseMapperName recovers the label from a managed mapper name. The
// second result is false for mapper names ephem did not create.
func ParseMapperName(mapper string) (string, bool) {
	if !strings.HasPrefix(mapper, MapperPrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(mapper, MapperPrefix)
	loc := mapperSuffix.FindStringIndex(rest)
	if loc == nil || loc[0] == 0 {
		return "", false
	}
	return rest[:loc[0]], true
}

// MountDirName returns the directory name under the mount root for a
// managed mapper: the mapper name without the prefix.
func MountDirName(mapper string) string {
	return strings.TrimPrefix(mapper, MapperPrefix)
}
