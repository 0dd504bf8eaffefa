package base

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is the base command embedded in all CLI commands.
type Command struct {
	// Log is the process logger.
	Log hclog.Logger

	// UI is used for command input and output.
	UI cli.Ui
}
