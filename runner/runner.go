// Package runner executes the configured command, either as the
// debounced action of the watch pipeline or as a one-shot.
package runner

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/vcnkl/settle/config"
	"github.com/vcnkl/settle/logger"
	"github.com/vcnkl/settle/watcher"
)

type Runner struct {
	command string
	shell   string
	env     []string
	log     logger.Logger
}

func New(cfg *config.Config, log logger.Logger) *Runner {
	return &Runner{
		command: cfg.Command,
		shell:   cfg.Shell,
		env:     ComposeEnv(cfg.Env),
		log:     log.WithPrefix("run"),
	}
}

// Run executes the command for a settled file event. It blocks until
// the command exits or ctx is cancelled. On cancellation the command's
// whole process group is terminated and ctx's error is returned, so a
// superseded run reads as a cancellation rather than a failure.
func (r *Runner) Run(ctx context.Context, ev watcher.Event) error {
	r.log.Info("change settled, running",
		logger.String("path", ev.Path),
		logger.String("op", ev.Op))

	shellParts := strings.Fields(r.shell)
	args := append(shellParts[1:], "-c", r.command)
	cmd := exec.Command(shellParts[0], args...)
	cmd.Env = r.env
	cmd.Stdout = r.log.Writer()
	cmd.Stderr = r.log.Writer()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "start command")
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			<-done
		}
		r.log.Debug("run cancelled", logger.String("path", ev.Path))
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "command failed")
		}
		r.log.Info("done")
		return nil
	}
}

// ComposeEnv layers the configured variables over the process
// environment.
func ComposeEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
