package cmd

import (
	"github.com/vcnkl/settle/cmd/subcmds"

	"github.com/urfave/cli/v2"
)

func NewApp() *cli.App {
	return &cli.App{
		Name:    "settle",
		Usage:   "Run a command once the filesystem settles",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to settle.yml (default: search upward from cwd)",
			},
		},
		Commands: []*cli.Command{
			subcmds.WatchCmd(),
			subcmds.ExecCmd(),
			subcmds.InitCmd(),
		},
	}
}
