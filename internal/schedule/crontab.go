// Package schedule installs the periodic cleanup job into the user's
// crontab.
package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nace/ephem/internal/system"
	"github.com/robfig/cron/v3"
)

// Command returns the command line the cron job runs
func Command(executable string) string {
	return executable + " eject --expired"
}

// Crontab reads and writes the invoking user's crontab
type Crontab struct {
	executor *system.Executor
}

// NewCrontab creates a new crontab editor
func NewCrontab(executor *system.Executor) *Crontab {
	return &Crontab{
		executor: executor,
	}
}

// Read returns the current crontab. A user without a crontab has an
// empty one.
func (c *Crontab) Read() (string, error) {
	output, err := c.executor.RunOutput("crontab", "-l")
	if err != nil {
		var cmdErr *system.CommandError
		if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Stderr, "no crontab") {
			return "", nil
		}
		return "", fmt.Errorf("failed to read crontab: %w", err)
	}
	return output, nil
}

// Write replaces the crontab with content
func (c *Crontab) Write(content string) error {
	if _, err := c.executor.RunInput(strings.NewReader(content), "crontab", "-"); err != nil {
		return fmt.Errorf("failed to write crontab: %w", err)
	}
	return nil
}

// Install adds the cleanup job. It reports false if an identical entry was
// already present.
func (c *Crontab) Install(schedule, command string) (bool, error) {
	current, err := c.Read()
	if err != nil {
		return false, err
	}
	updated, changed, err := AddEntry(current, schedule, command)
	if err != nil || !changed {
		return false, err
	}
	return true, c.Write(updated)
}

// Uninstall removes every cleanup job. It reports false if there was none.
func (c *Crontab) Uninstall(command string) (bool, error) {
	current, err := c.Read()
	if err != nil {
		return false, err
	}
	updated, removed := RemoveEntry(current, command)
	if removed == 0 {
		return false, nil
	}
	return true, c.Write(updated)
}

// AddEntry returns crontab with "<schedule> <command>" appended. Any
// existing entry for command with a different schedule is replaced.
func AddEntry(crontab, schedule, command string) (string, bool, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return "", false, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	entry := schedule + " " + command
	for _, line := range lines(crontab) {
		if strings.TrimSpace(line) == entry {
			return crontab, false, nil
		}
	}

	kept, _ := RemoveEntry(crontab, command)
	return kept + entry + "\n", true, nil
}

// RemoveEntry drops every line running command and returns the result and
// the number of lines removed. Comments are never touched.
func RemoveEntry(crontab, command string) (string, int) {
	var sb strings.Builder
	removed := 0
	for _, line := range lines(crontab) {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") && strings.HasSuffix(trimmed, command) {
			removed++
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String(), removed
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
