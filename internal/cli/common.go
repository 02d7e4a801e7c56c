package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/nace/ephem/internal/archive"
	"github.com/nace/ephem/internal/config"
	"github.com/nace/ephem/internal/container"
	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/ui"
	"github.com/nace/ephem/internal/volume"
	"github.com/spf13/pflag"
)

// GlobalOptions are the flags shared by every command
type GlobalOptions struct {
	Verbose    bool
	Quiet      bool
	NoColor    bool
	Debug      bool
	ConfigPath string
}

// GlobalContext holds shared resources for all commands
type GlobalContext struct {
	Config   *config.Config
	Executor *system.Executor
	Logger   *ui.Logger
	Backend  *container.Backend
	Archiver *archive.SevenZip
	Creator  *volume.Creator
	Scanner  *volume.Scanner
	Importer *volume.Importer
	Ejector  *volume.Ejector
}

// NewGlobalContext creates a context with default configuration. Commands
// run against it only after Init has applied the parsed global flags.
func NewGlobalContext() *GlobalContext {
	ctx := &GlobalContext{}
	ctx.wire(config.Default(), GlobalOptions{})
	return ctx
}

// Init loads the configuration and rebuilds every component with the
// parsed global flags
func (ctx *GlobalContext) Init(opts GlobalOptions) error {
	ctx.Logger = ui.NewLogger(opts.Verbose, opts.Quiet, opts.NoColor)

	path, explicit := opts.ConfigPath, opts.ConfigPath != ""
	if !explicit {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return err
	}
	ctx.Logger.Debug("Configuration loaded from %s", path)

	ctx.wire(cfg, opts)
	return nil
}

func (ctx *GlobalContext) wire(cfg *config.Config, opts GlobalOptions) {
	ctx.Config = cfg
	ctx.Executor = system.NewExecutor(opts.Debug)
	ctx.Logger = ui.NewLogger(opts.Verbose, opts.Quiet, opts.NoColor)

	ctx.Backend = container.NewBackend(ctx.Executor, container.BackendOptions{
		ImageDir:     system.ExpandHome(cfg.Volume.ImageDir),
		MountRoot:    cfg.Volume.MountRoot,
		Filesystem:   cfg.Volume.Filesystem,
		ForceUnmount: cfg.Eject.Force,
	})
	ctx.Archiver = archive.NewSevenZip(ctx.Executor)

	ctx.Creator = volume.NewCreator(ctx.Backend, container.NewBackupExcluder(), volume.SystemClock(), ctx.Logger)
	ctx.Scanner = volume.NewScanner(ctx.Backend)
	ctx.Importer = volume.NewImporter(ctx.Creator, ctx.Archiver, ctx.Logger)
	ctx.Ejector = volume.NewEjector(ctx.Backend, volume.SystemClock(), ctx.Logger)
}

// stdin is read by --password-stdin
var stdin io.Reader = os.Stdin

// passwordFlags are shared by every command that unlocks something
type passwordFlags struct {
	stdin bool
}

func (p *passwordFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&p.stdin, "password-stdin", false, "Read password from stdin (for automation)")
}

// read returns the password from stdin or an interactive prompt.
// Caller is responsible for calling Zeroize() on the result.
func (p *passwordFlags) read(prompt string, confirm bool) (*system.SecureBytes, error) {
	if p.stdin {
		return ui.ReadPassword(stdin)
	}
	if confirm {
		return ui.PromptNewPassword()
	}
	pw, err := ui.PromptPassword(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return pw, nil
}

// generatePassword returns a random password for volumes nobody will
// ever unlock again
func generatePassword() *system.SecureBytes {
	return system.NewSecureBytes([]byte(uuid.NewString()))
}

// reportExtractionFailure tells the operator where a half-imported volume
// was left
func reportExtractionFailure(logger *ui.Logger, v *volume.Volume, err error) {
	if v == nil || !errors.Is(err, volume.ErrExtractionFailed) {
		return
	}
	logger.Warning("Volume left mounted at %s for inspection", v.MountPoint)
	if v.ImagePath != "" {
		logger.Warning("Image kept at %s", v.ImagePath)
	}
}
