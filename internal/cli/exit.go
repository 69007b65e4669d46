package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/gaborage/go-prolific/config"
	"github.com/gaborage/go-prolific/httpclient"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitConfig    = 3
	ExitAuth      = 4
	ExitInterrupt = 130
)

// ExitCode maps a command error to the process exit code. Smoke failures
// always exit with ExitGeneral.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrSmokeFailed):
		return ExitGeneral
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case isCobraUsageError(err):
		return ExitUsage
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfig
	case errors.Is(err, httpclient.ErrAuthentication), errors.Is(err, httpclient.ErrAuthorization):
		return ExitAuth
	default:
		return ExitGeneral
	}
}

// cobraUsageErrorPatterns identify flag and argument errors; cobra does not
// export typed errors for them.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
