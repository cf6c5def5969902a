package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/webstore-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			rt := getRuntime(c)
			if rt == nil {
				return fmt.Errorf("command not initialized")
			}
			return rt.print(c.App.Writer, buildinfo.Get())
		},
	}
}
