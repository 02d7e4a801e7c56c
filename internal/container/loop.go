package container

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nace/ephem/internal/system"
)

// deletedSuffix is appended by the kernel to the backing file name of a
// loop device whose file has been unlinked.
const deletedSuffix = " (deleted)"

// LoopManager handles loop device operations
type LoopManager struct {
	executor *system.Executor
}

// NewLoopManager creates a new loop manager
func NewLoopManager(executor *system.Executor) *LoopManager {
	return &LoopManager{
		executor: executor,
	}
}

// Attach attaches a file to a loop device
func (m *LoopManager) Attach(path string) (string, error) {
	output, err := m.executor.RunOutput("losetup", "-f", "--show", path)
	if err != nil {
		return "", fmt.Errorf("failed to attach loop device: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// Detach detaches a loop device
func (m *LoopManager) Detach(device string) error {
	err := m.executor.Run("losetup", "-d", device)
	if err != nil {
		return fmt.Errorf("failed to detach loop device %s: %w", device, err)
	}
	return nil
}

// losetupDevice represents a loop device from losetup -l -J output
type losetupDevice struct {
	Name     string `json:"name"`
	BackFile string `json:"back-file"`
}

type losetupOutput struct {
	LoopDevices []losetupDevice `json:"loopdevices"`
}

// BackingFile is the file behind a loop device
type BackingFile struct {
	Path    string
	Deleted bool
}

// GetAll returns all loop devices with their backing files
func (m *LoopManager) GetAll() (map[string]BackingFile, error) {
	output, err := m.executor.RunOutput("losetup", "-l", "-J")
	if err != nil {
		return nil, fmt.Errorf("failed to list loop devices: %w", err)
	}
	return parseLosetupJSON(output)
}

func parseLosetupJSON(output string) (map[string]BackingFile, error) {
	devices := make(map[string]BackingFile)
	// losetup prints nothing at all when no loop device is in use
	if strings.TrimSpace(output) == "" {
		return devices, nil
	}

	var result losetupOutput
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		return nil, fmt.Errorf("failed to parse losetup output: %w", err)
	}

	for _, dev := range result.LoopDevices {
		if dev.BackFile == "" {
			continue
		}
		file := BackingFile{Path: dev.BackFile}
		if strings.HasSuffix(file.Path, deletedSuffix) {
			file.Path = strings.TrimSuffix(file.Path, deletedSuffix)
			file.Deleted = true
		}
		devices[dev.Name] = file
	}

	return devices, nil
}
