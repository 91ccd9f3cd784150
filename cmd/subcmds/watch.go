package subcmds

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/vcnkl/settle/config"
	"github.com/vcnkl/settle/debounce"
	"github.com/vcnkl/settle/logger"
	"github.com/vcnkl/settle/runner"
	"github.com/vcnkl/settle/watcher"

	"github.com/urfave/cli/v2"
)

func WatchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the configured paths and run the command when changes settle",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "settle",
				Usage: "Override the settle window from settle.yml",
			},
		},
		Action: func(ctx *cli.Context) error {
			log, cfg, err := setup(ctx)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			if ctx.IsSet("settle") {
				cfg.Settle = ctx.Duration("settle")
			}

			watchCtx, cancel := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			start := time.Now()
			for {
				err := runPipeline(watchCtx, cfg, log)
				if err == nil || errors.Is(err, context.Canceled) {
					log.Info("stopped", logger.Duration("uptime", time.Since(start)))
					return nil
				}

				if !cfg.KeepGoing {
					return cli.Exit("error: "+err.Error(), 1)
				}

				log.Error("pipeline failed, restarting", logger.Err(err))
			}
		},
	}
}

// runPipeline wires watcher -> debouncer -> runner and blocks until the
// pipeline ends. A failed command run tears the pipeline down; the
// caller decides whether to rebuild it.
func runPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	// Scope the watcher to this pipeline instance, so a failed run
	// unblocks the event pump before a rebuild.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := watcher.New(cfg.Paths, cfg.Ignore, log)
	if err != nil {
		return err
	}
	defer w.Stop()

	r := runner.New(cfg, log)
	d := debounce.NewDebouncer(cfg.Settle, r.Run, &debounce.Options{Logger: log})

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Start(ctx)
	}()

	log.Info("watching",
		logger.Any("paths", cfg.Paths),
		logger.Duration("settle", cfg.Settle))

	if err := d.Run(ctx, w.Events()); err != nil {
		return err
	}
	return <-watchErr
}
