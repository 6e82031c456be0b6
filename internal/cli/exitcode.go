package cli

import (
	"errors"

	"github.com/chaind/chain-manager/internal/domain"
)

// Exit codes per the sysexits-style convention spec §6 assigns to any
// CLI wrapper atop the core.
const (
	ExitOK             = 0
	ExitInvalidConfig  = 64
	ExitResourceConflict = 65
	ExitStartTimeout   = 66
	ExitUnexpected     = 70
)

// ExitCode maps an error returned from a chaind/chainctl command to
// one of the exit codes spec §6 names.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		return ExitInvalidConfig
	case errors.Is(err, domain.ErrPortInUse), errors.Is(err, domain.ErrPathInUse), errors.Is(err, domain.ErrPortInUseAtLaunch):
		return ExitResourceConflict
	case errors.Is(err, domain.ErrStartTimeout):
		return ExitStartTimeout
	default:
		return ExitUnexpected
	}
}
