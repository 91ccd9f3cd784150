package subcmds

import (
	"os"

	"github.com/vcnkl/settle/config"
	"github.com/vcnkl/settle/logger"

	"github.com/urfave/cli/v2"
)

func InitCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter settle.yml in the current directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing settle.yml",
			},
		},
		Action: func(ctx *cli.Context) error {
			log := logger.New(logger.InfoLevel)

			if _, err := os.Stat(config.FileName); err == nil && !ctx.Bool("force") {
				return cli.Exit(config.FileName+" already exists (use --force to overwrite)", 1)
			}

			if err := os.WriteFile(config.FileName, []byte(config.DefaultYAML), 0644); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			log.Info("wrote " + config.FileName)
			return nil
		},
	}
}
