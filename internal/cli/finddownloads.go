package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nace/ephem/internal/downloads"
	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/ui"
	"github.com/spf13/cobra"
)

// FindDownloadsCommand handles listing downloads by origin
type FindDownloadsCommand struct {
	ctx     *GlobalContext
	domains []string
	days    uint32
	delete  bool
	verbose bool
}

// NewFindDownloadsCommand creates the find-downloads command
func NewFindDownloadsCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &FindDownloadsCommand{ctx: ctx}

	cobraCmd := &cobra.Command{
		Use:   "find-downloads [path]",
		Short: "Find downloaded files by the site they came from",
		Long: `List the files in a download folder whose recorded origin matches one
of the given domains. "example.com" matches that host only;
"*.example.com" matches example.com and all of its subdomains.

Without any domain every file with a recorded origin is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringArrayVarP(&cmd.domains, "domain", "d", nil, "Domain to look for (repeatable)")
	cobraCmd.Flags().Uint32Var(&cmd.days, "days", 0, "Only files older than this many days")
	cobraCmd.Flags().BoolVar(&cmd.delete, "delete", false, "Delete all found files")
	cobraCmd.Flags().BoolVarP(&cmd.verbose, "verbose", "v", false, "Show origin, size and age")

	return cobraCmd
}

// Run executes the find-downloads command
func (c *FindDownloadsCommand) Run(cmd *cobra.Command, args []string) error {
	dir := c.ctx.Config.Downloads.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	dir = system.ExpandHome(dir)

	domains := c.ctx.Config.Downloads.Domains
	if len(c.domains) > 0 {
		domains = c.domains
	}

	now := time.Now()
	matches, err := downloads.NewFinder().Find(dir, downloads.Options{
		Domains:    domains,
		MinAgeDays: c.days,
		Now:        now,
	})
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		c.ctx.Logger.Info("No matching downloads in %s", dir)
		return nil
	}

	if c.verbose {
		table := ui.NewTable("FILE", "SIZE", "AGE", "ORIGIN")
		for _, m := range matches {
			table.AddRow(m.Path, humanize.IBytes(uint64(m.Size)), humanize.RelTime(m.ModTime, now, "ago", "from now"), m.Origin)
		}
		table.Print()
	} else {
		for _, m := range matches {
			fmt.Println(m.Path)
		}
	}

	if c.delete {
		if err := downloads.Delete(matches); err != nil {
			return fmt.Errorf("failed to delete downloads: %w", err)
		}
		c.ctx.Logger.Success("Deleted %d files", len(matches))
	}

	return nil
}
