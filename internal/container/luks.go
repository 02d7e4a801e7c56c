package container

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nace/ephem/internal/system"
)

// LUKSManager handles LUKS operations
type LUKSManager struct {
	executor *system.Executor
}

// NewLUKSManager creates a new LUKS manager
func NewLUKSManager(executor *system.Executor) *LUKSManager {
	return &LUKSManager{
		executor: executor,
	}
}

// passphraseInput feeds the passphrase the way cryptsetup expects it on a
// non-terminal stdin: terminated by a newline.
func passphraseInput(password []byte) *bytes.Reader {
	buf := make([]byte, 0, len(password)+1)
	buf = append(buf, password...)
	buf = append(buf, '\n')
	return bytes.NewReader(buf)
}

// Format formats an image as LUKS2 and stores label in its header
func (m *LUKSManager) Format(path, label string, password []byte) error {
	args := []string{"luksFormat", "--type", "luks2", "--batch-mode"}
	if label != "" {
		args = append(args, "--label", label)
	}
	args = append(args, path)

	if _, err := m.executor.RunInput(passphraseInput(password), "cryptsetup", args...); err != nil {
		return fmt.Errorf("failed to format LUKS container: %w", err)
	}
	return nil
}

// IsLUKS checks if a file is LUKS formatted
func (m *LUKSManager) IsLUKS(path string) bool {
	return m.executor.Run("cryptsetup", "isLuks", path) == nil
}

// Label reads the label stored in a LUKS2 header
func (m *LUKSManager) Label(path string) (string, error) {
	output, err := m.executor.RunOutput("cryptsetup", "luksDump", path)
	if err != nil {
		return "", fmt.Errorf("failed to read LUKS header: %w", err)
	}
	return system.ParseLuksDumpLabel(output), nil
}

// Open opens a LUKS container
func (m *LUKSManager) Open(device, mapperName string, password []byte) error {
	_, err := m.executor.RunInput(passphraseInput(password), "cryptsetup", "luksOpen", device, mapperName)
	if err != nil {
		if strings.Contains(err.Error(), "No key available") {
			return fmt.Errorf("incorrect passphrase for %s", device)
		}
		return fmt.Errorf("failed to open LUKS container: %w", err)
	}
	return nil
}

// Close closes a LUKS container
func (m *LUKSManager) Close(mapperName string) error {
	err := m.executor.Run("cryptsetup", "luksClose", mapperName)
	if err != nil {
		return fmt.Errorf("failed to close LUKS container %s: %w", mapperName, err)
	}
	return nil
}
