package main

import (
	"os"

	"github.com/nace/ephem/internal/cli"
	"github.com/spf13/cobra"
)

var (
	opts cli.GlobalOptions
	ctx  *cli.GlobalContext
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		ctx.Logger.Error("%v", err)
		os.Exit(cli.ExitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "ephem",
	Short: "Ephem - ephemeral encrypted volumes",
	Long: `Ephem creates short-lived LUKS2 encrypted volumes on Linux.

Every volume carries its expiry date in its label. "ephem eject --expired",
run by hand or from cron, unmounts and closes volumes past their date.
Volumes created without --keep have no image file left on disk, so their
contents are destroyed on eject.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Rebuild context components with parsed flag values
		return ctx.Init(opts)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Quiet mode (suppress non-error output)")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Debug mode (show commands)")
	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Config file (default $XDG_CONFIG_HOME/ephem/config.yaml)")

	// Create initial context with default values
	// Will be updated in PersistentPreRunE with parsed flag values
	ctx = cli.NewGlobalContext()

	// Register commands
	rootCmd.AddCommand(cli.NewNewCommand(ctx))
	rootCmd.AddCommand(cli.NewImportCommand(ctx))
	rootCmd.AddCommand(cli.NewAttachCommand(ctx))
	rootCmd.AddCommand(cli.NewListCommand(ctx))
	rootCmd.AddCommand(cli.NewEjectCommand(ctx))
	rootCmd.AddCommand(cli.NewCronCommand(ctx))
	rootCmd.AddCommand(cli.NewFindDownloadsCommand(ctx))

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
