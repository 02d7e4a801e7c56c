package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/volume"
	"github.com/spf13/cobra"
)

// ImportCommand handles unpacking an encrypted archive into a volume
type ImportCommand struct {
	ctx       *GlobalContext
	keep      bool
	days      uint32
	name      string
	extraSize uint64
	password  passwordFlags
}

// NewImportCommand creates the import command
func NewImportCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &ImportCommand{ctx: ctx}

	cobraCmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Unpack an encrypted archive into a new ephemeral volume",
		Long: `Create an encrypted volume sized for the archive, protected by the
archive's password, and extract the archive into it.

If extraction fails the volume stays mounted and its image is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().BoolVarP(&cmd.keep, "keep", "k", false, "Keep the image file after importing")
	cobraCmd.Flags().Uint32Var(&cmd.days, "days", 0, "Days until the volume expires")
	cobraCmd.Flags().StringVarP(&cmd.name, "name", "n", "", "Name the volume instead of giving it an expiry")
	cobraCmd.Flags().Uint64Var(&cmd.extraSize, "extra-size", 0, "Extra space in MB on top of the archive contents")
	cmd.password.register(cobraCmd.Flags())

	return cobraCmd
}

// Run executes the import command
func (c *ImportCommand) Run(cmd *cobra.Command, args []string) error {
	if err := system.RequireRoot(); err != nil {
		return err
	}

	archivePath := args[0]
	opts := volume.ImportOptions{
		TTLDays:     c.ctx.Config.Volume.Days,
		KeepImage:   c.keep,
		Name:        c.name,
		SizeFactor:  c.ctx.Config.Import.SizeFactor,
		ExtraSizeMB: c.ctx.Config.Import.ExtraSizeMB,
	}
	if cmd.Flags().Changed("days") {
		opts.TTLDays = c.days
	}
	if cmd.Flags().Changed("extra-size") {
		opts.ExtraSizeMB = c.extraSize
	}
	if opts.Name == "" {
		stem := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
		c.ctx.Logger.Info("Importing %s into an expiring volume", stem)
	}

	password, err := c.password.read("Archive password", false)
	if err != nil {
		return err
	}
	defer password.Zeroize()

	v, err := c.ctx.Importer.Import(archivePath, password.Bytes(), opts)
	if err != nil {
		reportExtractionFailure(c.ctx.Logger, v, err)
		return err
	}

	c.ctx.Logger.Success("Archive extracted to %s", v.MountPoint)
	if v.Expiry != nil {
		c.ctx.Logger.Info("Expires: %s", formatDay(*v.Expiry))
	}
	if v.ImagePath != "" {
		c.ctx.Logger.Info("Image: %s", v.ImagePath)
	}
	fmt.Println(v.MountPoint)

	return nil
}
