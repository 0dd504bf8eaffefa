package version

import (
	"github.com/mediaops/stagehand/internal/cmd/base"
	"github.com/mediaops/stagehand/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: stagehand version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
