package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nace/ephem/internal/schedule"
	"github.com/nace/ephem/internal/system"
	"github.com/spf13/cobra"
)

// CronCommand handles installing the periodic cleanup job
type CronCommand struct {
	ctx       *GlobalContext
	install   bool
	uninstall bool
	schedule  string
}

// NewCronCommand creates the cron command
func NewCronCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &CronCommand{ctx: ctx}

	cobraCmd := &cobra.Command{
		Use:   "cron (--install | --uninstall)",
		Short: "Install or remove the job that ejects expired volumes",
		Long: `Add a crontab entry that periodically runs "ephem eject --expired", or
remove it again. Install it from root's crontab (with sudo), since ejecting
needs root.`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().BoolVar(&cmd.install, "install", false, "Install the cleanup job")
	cobraCmd.Flags().BoolVar(&cmd.uninstall, "uninstall", false, "Remove the cleanup job")
	cobraCmd.Flags().StringVar(&cmd.schedule, "schedule", "", "Cron schedule (default from config, hourly)")
	cobraCmd.MarkFlagsMutuallyExclusive("install", "uninstall")
	cobraCmd.MarkFlagsOneRequired("install", "uninstall")

	return cobraCmd
}

// Run executes the cron command
func (c *CronCommand) Run(cmd *cobra.Command, args []string) error {
	if !c.ctx.Executor.CommandExists("crontab") {
		return fmt.Errorf("%w: crontab", system.ErrCommandNotFound)
	}

	exe, err := executablePath()
	if err != nil {
		return err
	}
	command := schedule.Command(exe)
	crontab := schedule.NewCrontab(c.ctx.Executor)

	if c.uninstall {
		removed, err := crontab.Uninstall(command)
		if err != nil {
			return err
		}
		if !removed {
			c.ctx.Logger.Info("No cleanup job installed")
			return nil
		}
		c.ctx.Logger.Success("Cleanup job removed")
		return nil
	}

	if !system.IsRoot() {
		c.ctx.Logger.Warning("Ejecting needs root; this job is installed for the current user")
	}

	expr := c.ctx.Config.Cron.Schedule
	if c.schedule != "" {
		expr = c.schedule
	}
	added, err := crontab.Install(expr, command)
	if err != nil {
		return err
	}
	if !added {
		c.ctx.Logger.Info("Cleanup job already installed")
		return nil
	}
	c.ctx.Logger.Success("Cleanup job installed: %s %s", expr, command)
	return nil
}

func executablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate ephem executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to locate ephem executable: %w", err)
	}
	if resolved == "" {
		return "", errors.New("failed to locate ephem executable")
	}
	return resolved, nil
}
