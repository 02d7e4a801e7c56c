package container

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nace/ephem/internal/system"
)

// Discovery handles container discovery by querying system state
type Discovery struct {
	executor    *system.Executor
	loopManager *LoopManager
	mountMgr    *MountManager
	mountsFile  string
}

// NewDiscovery creates a new discovery instance
func NewDiscovery(executor *system.Executor) *Discovery {
	return &Discovery{
		executor:    executor,
		loopManager: NewLoopManager(executor),
		mountMgr:    NewMountManager(executor),
		mountsFile:  "/proc/mounts",
	}
}

// DiscoverManaged discovers all open containers whose mapper name carries
// the ephem prefix. Any failure to query the system fails the whole
// discovery; a partial view could make an eject miss volumes.
func (d *Discovery) DiscoverManaged() ([]Container, error) {
	// Step 1: Get all crypt-type mapper devices
	mappers, err := d.getCryptMappers()
	if err != nil {
		return nil, err
	}

	var managed []string
	for _, mapper := range mappers {
		if _, ok := ParseMapperName(mapper); ok {
			managed = append(managed, mapper)
		}
	}
	if len(managed) == 0 {
		return nil, nil
	}

	// Step 2: Get all loop devices and their backing files
	loopDevices, err := d.loopManager.GetAll()
	if err != nil {
		return nil, err
	}

	// Step 3: Parse /proc/mounts to find mount points
	mounts, err := d.getMounts()
	if err != nil {
		return nil, err
	}

	// Step 4: Correlate all information
	var containers []Container
	for _, mapper := range managed {
		container := Container{
			MapperName: mapper,
		}

		loopDev, err := d.getMapperLoopDevice(mapper)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve backing device of %s: %w", mapper, err)
		}
		container.LoopDevice = loopDev

		if backFile, ok := loopDevices[loopDev]; ok {
			container.Deleted = backFile.Deleted
			if !backFile.Deleted {
				absPath, _ := filepath.Abs(backFile.Path)
				container.Path = absPath
			}
		}

		mapperDevice := "/dev/mapper/" + mapper
		if mount, ok := mounts[mapperDevice]; ok {
			container.MountPoint = mount.MountPoint
			container.Filesystem = mount.Filesystem
			// size is informational only
			if size, used, err := d.mountMgr.GetFilesystemSize(mount.MountPoint); err == nil {
				container.Size = size
				container.Used = used
			}
		}

		containers = append(containers, container)
	}

	return containers, nil
}

// FindByPath finds a container by its image path
func (d *Discovery) FindByPath(path string) (*Container, error) {
	containers, err := d.DiscoverManaged()
	if err != nil {
		return nil, err
	}

	absPath, _ := filepath.Abs(path)
	for _, c := range containers {
		if c.Path != "" && c.Path == absPath {
			return &c, nil
		}
	}

	return nil, nil
}

// FindByTarget finds a container by its mount point or mapper device
func (d *Discovery) FindByTarget(target string) (*Container, error) {
	containers, err := d.DiscoverManaged()
	if err != nil {
		return nil, err
	}

	for _, c := range containers {
		if (c.MountPoint != "" && c.MountPoint == target) || "/dev/mapper/"+c.MapperName == target {
			return &c, nil
		}
	}

	return nil, nil
}

// getCryptMappers returns all crypt-type device mapper names
func (d *Discovery) getCryptMappers() ([]string, error) {
	output, err := d.executor.RunOutput("dmsetup", "ls", "--target", "crypt")
	if err != nil {
		return nil, fmt.Errorf("failed to list device-mapper targets: %w", err)
	}
	return system.ParseDmsetupList(output), nil
}

// getMapperLoopDevice gets the backing loop device for a mapper
func (d *Discovery) getMapperLoopDevice(mapper string) (string, error) {
	output, err := d.executor.RunOutput("dmsetup", "table", mapper)
	if err != nil {
		return "", err
	}

	device, err := system.ParseDmsetupTable(output)
	if err != nil {
		return "", err
	}
	return loopDevicePath(device), nil
}

// loopDevicePath converts major:minor format (e.g., "7:2") to a device path
// (e.g., "/dev/loop2"). Loop devices always have major number 7.
func loopDevicePath(device string) string {
	if parts := strings.Split(device, ":"); len(parts) == 2 && parts[0] == "7" {
		return "/dev/loop" + parts[1]
	}
	return device
}

// MountInfo represents mount information
type MountInfo struct {
	Device     string
	MountPoint string
	Filesystem string
}

// getMounts parses /proc/mounts to find mount points
func (d *Discovery) getMounts() (map[string]MountInfo, error) {
	data, err := os.ReadFile(d.mountsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read mount table: %w", err)
	}
	return parseMounts(data), nil
}

func parseMounts(data []byte) map[string]MountInfo {
	mounts := make(map[string]MountInfo)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		device := fields[0]
		// Only track /dev/mapper/* devices
		if !strings.HasPrefix(device, "/dev/mapper/") {
			continue
		}
		mounts[device] = MountInfo{
			Device:     device,
			MountPoint: unescapeMountField(fields[1]),
			Filesystem: fields[2],
		}
	}
	return mounts
}

// unescapeMountField undoes the octal escaping /proc/mounts applies to
// spaces, tabs, newlines and backslashes.
func unescapeMountField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}
