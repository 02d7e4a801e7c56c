package cli

import (
	"errors"
	"fmt"

	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/volume"
	"github.com/spf13/cobra"
)

// EjectCommand handles volume ejection
type EjectCommand struct {
	ctx     *GlobalContext
	all     bool
	expired bool
	force   bool
}

// NewEjectCommand creates the eject command
func NewEjectCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &EjectCommand{ctx: ctx}

	cobraCmd := &cobra.Command{
		Use:   "eject (--all | --expired | <mount-point|image>)",
		Short: "Unmount and close ephemeral volumes",
		Long: `Unmount and close ephem volumes. Volumes whose image was discarded are
destroyed for good.

Every selected volume is attempted even if an earlier one fails. The exit
status is 2 if any of them could not be ejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().BoolVarP(&cmd.all, "all", "a", false, "Eject all volumes")
	cobraCmd.Flags().BoolVarP(&cmd.expired, "expired", "e", false, "Eject expired volumes only")
	cobraCmd.Flags().BoolVarP(&cmd.force, "force", "f", false, "Force unmount (try umount -f, then umount -l)")

	return cobraCmd
}

// ejectPolicy turns the command line into a selection policy. Exactly one
// of --all, --expired or a target is required.
func ejectPolicy(all, expired bool, args []string) (volume.Policy, error) {
	n := len(args)
	if all {
		n++
	}
	if expired {
		n++
	}
	if n != 1 {
		return volume.Policy{}, errors.New("specify exactly one of --all, --expired or a mount point")
	}

	switch {
	case all:
		return volume.All(), nil
	case expired:
		return volume.ExpiredOnly(), nil
	default:
		return volume.ByTarget(args[0]), nil
	}
}

// Run executes the eject command
func (c *EjectCommand) Run(cmd *cobra.Command, args []string) error {
	policy, err := ejectPolicy(c.all, c.expired, args)
	if err != nil {
		return err
	}

	if err := system.RequireRoot(); err != nil {
		return err
	}

	ejector := c.ctx.Ejector
	if c.force {
		ejector = volume.NewEjector(c.ctx.Backend.WithForceUnmount(true), volume.SystemClock(), c.ctx.Logger)
	}

	report, err := ejector.Eject(policy)
	if err != nil && !errors.Is(err, volume.ErrPartialBatch) {
		return err
	}

	if report.Unmatched {
		c.ctx.Logger.Warning("No mounted volume matches %s", policy.Target)
		return nil
	}
	if len(report.Outcomes) == 0 {
		c.ctx.Logger.Info("No volumes to eject")
		return nil
	}

	for _, o := range report.Outcomes {
		name := o.Volume.MountPoint
		if name == "" {
			name = o.Volume.Device
		}
		if o.Err != nil {
			c.ctx.Logger.Error("Failed to eject %s: %v", name, o.Err)
			continue
		}
		if o.Volume.ImagePath == "" {
			c.ctx.Logger.Success("Ejected and destroyed %s", name)
		} else {
			c.ctx.Logger.Success("Ejected %s (image kept at %s)", name, o.Volume.ImagePath)
		}
	}

	c.ctx.Logger.Info("Ejected %d of %d volumes", report.Succeeded(), len(report.Outcomes))
	if err != nil {
		return fmt.Errorf("%d of %d volumes failed to eject: %w", report.Failed(), len(report.Outcomes), volume.ErrPartialBatch)
	}
	return nil
}
