package subcmds

import (
	"github.com/vcnkl/settle/runner"

	"github.com/urfave/cli/v2"
)

func ExecCmd() *cli.Command {
	return &cli.Command{
		Name:  "exec",
		Usage: "Run the configured command once, without watching",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Kill the command after this duration",
			},
		},
		Action: func(ctx *cli.Context) error {
			log, cfg, err := setup(ctx)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			runLog := log.WithPrefix("exec")
			err = runner.Exec(ctx.Context, cfg.Command, &runner.ShellOptions{
				Env:     runner.ComposeEnv(cfg.Env),
				Shell:   cfg.Shell,
				Stdout:  runLog.Writer(),
				Stderr:  runLog.Writer(),
				Timeout: ctx.Duration("timeout"),
			})
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			return nil
		},
	}
}
