package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/settle/config"
	"github.com/vcnkl/settle/logger"
	"github.com/vcnkl/settle/watcher"
)

func newTestRunner(command string) *Runner {
	cfg := &config.Config{Command: command}
	cfg.SetDefaults()
	return New(cfg, logger.Discard())
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")

	r := newTestRunner("touch " + marker)
	err := r.Run(context.Background(), watcher.Event{Path: "main.go", Op: "WRITE"})
	require.NoError(t, err)

	_, err = os.Stat(marker)
	assert.NoError(t, err)
}

func TestRunner_RunFailure(t *testing.T) {
	r := newTestRunner("exit 3")
	err := r.Run(context.Background(), watcher.Event{Path: "main.go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
}

func TestRunner_RunCancelledKillsProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := newTestRunner("sleep 30")
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx, watcher.Event{Path: "main.go"})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled run did not return")
	}
}

func TestRunner_RunUsesConfiguredEnv(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	cfg := &config.Config{
		Command: "printf '%s' \"$SETTLE_TEST_VALUE\" > " + out,
		Env:     map[string]string{"SETTLE_TEST_VALUE": "from-config"},
	}
	cfg.SetDefaults()

	r := New(cfg, logger.Discard())
	require.NoError(t, r.Run(context.Background(), watcher.Event{Path: "x"}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "from-config", string(data))
}

func TestExec(t *testing.T) {
	var buf bytes.Buffer
	err := Exec(context.Background(), "echo hello", &ShellOptions{
		Stdout: &buf,
		Stderr: &buf,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hello")
}

func TestExec_NonZeroExit(t *testing.T) {
	err := Exec(context.Background(), "exit 7", &ShellOptions{
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	})
	require.Error(t, err)
}

func TestExec_WorkDir(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	err := Exec(context.Background(), "pwd", &ShellOptions{
		WorkDir: dir,
		Stdout:  &buf,
		Stderr:  &buf,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), filepath.Base(dir))
}

func TestExec_Timeout(t *testing.T) {
	err := Exec(context.Background(), "sleep 30", &ShellOptions{
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
		Timeout: 100 * time.Millisecond,
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "plain",
			in:       "echo hi",
			expected: "'echo hi'",
		},
		{
			name:     "embedded single quote",
			in:       "it's",
			expected: `'it'"'"'s'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shellQuote(tt.in))
		})
	}
}

func TestComposeEnv(t *testing.T) {
	env := ComposeEnv(map[string]string{"SETTLE_X": "1"})
	assert.Contains(t, env, "SETTLE_X=1")
	assert.GreaterOrEqual(t, len(env), 1)
}
