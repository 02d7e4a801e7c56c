package cli

import (
	"fmt"

	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/volume"
	"github.com/spf13/cobra"
)

// NewVolumeCommand handles creation of empty volumes
type NewVolumeCommand struct {
	ctx      *GlobalContext
	size     string
	name     string
	days     uint32
	keep     bool
	password passwordFlags
}

// NewNewCommand creates the new command
func NewNewCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &NewVolumeCommand{ctx: ctx}

	cobraCmd := &cobra.Command{
		Use:   "new",
		Short: "Create and mount a new ephemeral encrypted volume",
		Long: `Create a new LUKS2 encrypted volume and mount it.

Unless --keep is given the volume gets a random password and its image is
deleted right after mounting: once ejected, the data is gone for good.`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringVarP(&cmd.size, "size", "s", "", "Volume size in MB, or with a unit (e.g. 500M, 2G)")
	cobraCmd.Flags().StringVarP(&cmd.name, "name", "n", "", "Name the volume instead of giving it an expiry")
	cobraCmd.Flags().Uint32Var(&cmd.days, "days", 0, "Days until the volume expires")
	cobraCmd.Flags().BoolVarP(&cmd.keep, "keep", "k", false, "Keep the image file and prompt for a password")
	cmd.password.register(cobraCmd.Flags())

	return cobraCmd
}

// Run executes the new command
func (c *NewVolumeCommand) Run(cmd *cobra.Command, args []string) error {
	if err := system.RequireRoot(); err != nil {
		return err
	}

	cfg := c.ctx.Config.Volume
	sizeMB := cfg.SizeMB
	if c.size != "" {
		var err error
		if sizeMB, err = system.ParseSizeMB(c.size); err != nil {
			return err
		}
	}
	days := cfg.Days
	if cmd.Flags().Changed("days") {
		days = c.days
	}

	spec := volume.Sized(sizeMB, days)
	if c.name != "" {
		spec = volume.Named(c.name, sizeMB)
	}
	// fail on a bad name before asking for a password
	if _, err := c.ctx.Creator.Label(spec); err != nil {
		return err
	}

	var password *system.SecureBytes
	switch {
	case c.password.stdin:
		pw, err := c.password.read("", false)
		if err != nil {
			return err
		}
		password = pw
	case c.keep:
		pw, err := c.password.read("Enter passphrase", true)
		if err != nil {
			return err
		}
		password = pw
	default:
		password = generatePassword()
	}
	defer password.Zeroize()

	v, err := c.ctx.Creator.Create(spec, password.Bytes())
	if err != nil {
		return err
	}

	if !c.keep {
		if err := c.ctx.Creator.Discard(v); err != nil {
			return err
		}
		c.ctx.Logger.Info("Image discarded; contents are destroyed on eject")
	}

	c.ctx.Logger.Success("Volume mounted at %s", v.MountPoint)
	if v.Expiry != nil {
		c.ctx.Logger.Info("Expires: %s", formatDay(*v.Expiry))
	}
	if v.ImagePath != "" {
		c.ctx.Logger.Info("Image: %s", v.ImagePath)
	}
	fmt.Println(v.MountPoint)

	return nil
}
