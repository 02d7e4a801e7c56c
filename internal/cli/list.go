package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/ui"
	"github.com/nace/ephem/internal/volume"
	"github.com/spf13/cobra"
)

// ListCommand handles listing volumes
type ListCommand struct {
	ctx     *GlobalContext
	verbose bool
	json    bool
}

// NewListCommand creates the list command
func NewListCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &ListCommand{ctx: ctx}

	cobraCmd := &cobra.Command{
		Use:   "list [mount-point|image]",
		Short: "List mounted ephemeral volumes",
		Long: `List all mounted ephem volumes with their expiry and status, or only
the one mounted at or backed by the given path.`,
		Args: cobra.MaximumNArgs(1),
		RunE:  cmd.Run,
	}

	cobraCmd.Flags().BoolVarP(&cmd.verbose, "verbose", "v", false, "Verbose output")
	cobraCmd.Flags().BoolVarP(&cmd.json, "json", "j", false, "JSON output")

	return cobraCmd
}

// listedVolume is the JSON form of a listed volume
type listedVolume struct {
	volume.Volume
	Status string `json:"status"`
}

// Run executes the list command
func (c *ListCommand) Run(cmd *cobra.Command, args []string) error {
	if err := system.RequireRoot(); err != nil {
		return err
	}

	volumes, err := c.scan(args)
	if err != nil {
		return err
	}
	now := time.Now()

	if c.json {
		listed := make([]listedVolume, 0, len(volumes))
		for _, v := range volumes {
			listed = append(listed, listedVolume{Volume: v, Status: v.Status(now)})
		}
		return ui.PrintJSON(listed)
	}

	if len(volumes) == 0 {
		fmt.Println("No mounted volumes found")
		return nil
	}

	if c.verbose {
		printVerbose(os.Stdout, volumes, now)
	} else {
		volumeTable(volumes, now).Print()
	}

	return nil
}

func (c *ListCommand) scan(args []string) ([]volume.Volume, error) {
	if len(args) == 0 {
		return c.ctx.Scanner.Scan()
	}

	v, err := c.ctx.Scanner.Find(args[0])
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("no mounted volume matches %s", args[0])
	}
	return []volume.Volume{*v}, nil
}

func volumeTable(volumes []volume.Volume, now time.Time) *ui.Table {
	table := ui.NewTable("MOUNT POINT", "LABEL", "EXPIRES", "STATUS", "SIZE")

	for _, v := range volumes {
		size := "-"
		if v.Size > 0 {
			size = system.FormatSize(v.Size)
		}

		table.AddRow(
			orDash(v.MountPoint),
			v.Label,
			expiryColumn(v),
			v.Status(now),
			size,
		)
	}

	return table
}

func expiryColumn(v volume.Volume) string {
	if v.Expiry == nil {
		return volume.StatusNamed
	}
	return formatDay(*v.Expiry)
}

// formatDay renders an expiry as a calendar day in UTC
func formatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printVerbose(w io.Writer, volumes []volume.Volume, now time.Time) {
	for i, v := range volumes {
		if i > 0 {
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "Volume: %s\n", orDash(v.MountPoint))
		fmt.Fprintf(w, "  Label: %s\n", v.Label)
		fmt.Fprintf(w, "  Status: %s\n", v.Status(now))

		if v.Expiry != nil {
			fmt.Fprintf(w, "  Expires: %s (%s)\n", formatDay(*v.Expiry), humanize.RelTime(*v.Expiry, now, "ago", "from now"))
		}

		if v.ImagePath != "" {
			fmt.Fprintf(w, "  Image: %s\n", v.ImagePath)
		} else {
			fmt.Fprintf(w, "  Image: discarded\n")
		}

		if v.Device != "" {
			fmt.Fprintf(w, "  Device: %s\n", v.Device)
		}

		if v.Filesystem != "" {
			fmt.Fprintf(w, "  Filesystem: %s\n", v.Filesystem)
		}

		if v.Size > 0 {
			percentage := float64(v.Used) / float64(v.Size) * 100
			fmt.Fprintf(w, "  Size: %s\n", system.FormatSize(v.Size))
			fmt.Fprintf(w, "  Used: %s (%.1f%%)\n", system.FormatSize(v.Used), percentage)
		}
	}
}
