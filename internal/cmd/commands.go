package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/mediaops/stagehand/internal/cmd/base"
	"github.com/mediaops/stagehand/internal/cmd/commands/server"
	versioncmd "github.com/mediaops/stagehand/internal/cmd/commands/version"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := &base.Command{
		Log: log,
		UI:  ui,
	}

	Commands = map[string]cli.CommandFactory{
		"server": func() (cli.Command, error) {
			return &server.Command{Command: baseCommand}, nil
		},
		"version": func() (cli.Command, error) {
			return &versioncmd.Command{Command: baseCommand}, nil
		},
	}
}
