package runner

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bitfield/script"
	"github.com/pkg/errors"
)

type ShellOptions struct {
	WorkDir string
	Env     []string
	Shell   string
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
}

// Exec runs cmdStr once through the shell. It is the `settle exec`
// path: no watching, no debouncing, output streamed to the given
// writers.
func Exec(ctx context.Context, cmdStr string, opts *ShellOptions) error {
	if opts == nil {
		opts = &ShellOptions{}
	}
	if opts.Shell == "" {
		opts.Shell = "/bin/sh"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	wrappedCmd := cmdStr
	if opts.WorkDir != "" {
		wrappedCmd = "cd " + shellQuote(opts.WorkDir) + " && (\n" + cmdStr + "\n)"
	}

	fullCmd := strings.Join(strings.Fields(opts.Shell), " ") + " -c " + shellQuote(wrappedCmd)

	done := make(chan error, 1)
	go func() {
		pipe := script.NewPipe().WithEnv(opts.Env)
		pipe = pipe.Exec(fullCmd)
		pipe = pipe.WithStdout(opts.Stdout).WithStderr(opts.Stderr)
		_, err := pipe.Stdout()
		if status := pipe.ExitStatus(); err == nil && status != 0 {
			err = errors.Errorf("command exited with status %d", status)
		}
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\"'\"'") + "'"
}
