package cli

import (
	"errors"

	"github.com/nace/ephem/internal/config"
	"github.com/nace/ephem/internal/system"
	"github.com/nace/ephem/internal/volume"
)

// Exit codes
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitPartial     = 2
	ExitUnavailable = 3
	ExitConfig      = 4
)

// ExitCode maps an error returned by a command to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrInvalid):
		return ExitConfig
	case errors.Is(err, volume.ErrPartialBatch):
		return ExitPartial
	case errors.Is(err, volume.ErrBackendUnavailable), errors.Is(err, system.ErrCommandNotFound):
		return ExitUnavailable
	default:
		return ExitFailure
	}
}
