package subcmds

import (
	"github.com/vcnkl/settle/config"
	"github.com/vcnkl/settle/logger"

	"github.com/urfave/cli/v2"
)

func setup(ctx *cli.Context) (logger.Logger, *config.Config, error) {
	level := logger.InfoLevel
	if ctx.Bool("debug") {
		level = logger.DebugLevel
	}
	log := logger.New(level)

	path, err := config.Find(ctx.String("config"))
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	log.Debug("config loaded", logger.String("path", path))
	return log, cfg, nil
}
