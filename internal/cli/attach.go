package cli

import (
	"fmt"

	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/volume"
	"github.com/spf13/cobra"
)

// AttachCommand handles re-attaching a kept image
type AttachCommand struct {
	ctx      *GlobalContext
	password passwordFlags
}

// NewAttachCommand creates the attach command
func NewAttachCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &AttachCommand{ctx: ctx}

	cobraCmd := &cobra.Command{
		Use:   "attach <image>",
		Short: "Mount an image kept with --keep",
		Long: `Unlock and mount an existing ephem image. The volume keeps the expiry
it was created with.`,
		Args: cobra.ExactArgs(1),
		RunE: cmd.Run,
	}

	cmd.password.register(cobraCmd.Flags())

	return cobraCmd
}

// Run executes the attach command
func (c *AttachCommand) Run(cmd *cobra.Command, args []string) error {
	if err := system.RequireRoot(); err != nil {
		return err
	}

	imagePath, err := system.ResolveFile(args[0])
	if err != nil {
		return err
	}
	c.ctx.Logger.Debug("Resolved image path: %s", imagePath)

	password, err := c.password.read("Enter passphrase", false)
	if err != nil {
		return err
	}
	defer password.Zeroize()

	v, err := c.ctx.Creator.Create(volume.FromImage(imagePath), password.Bytes())
	if err != nil {
		return err
	}

	c.ctx.Logger.Success("Volume mounted at %s", v.MountPoint)
	if v.Expiry != nil {
		if v.Expired(volume.SystemClock().Now()) {
			c.ctx.Logger.Warning("Volume expired on %s", formatDay(*v.Expiry))
		} else {
			c.ctx.Logger.Info("Expires: %s", formatDay(*v.Expiry))
		}
	}
	fmt.Println(v.MountPoint)

	return nil
}
