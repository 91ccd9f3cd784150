package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/settle/logger"
)

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name    string
		ignore  []string
		path    string
		ignored bool
	}{
		{
			name:    "no patterns",
			ignore:  nil,
			path:    "src/main.go",
			ignored: false,
		},
		{
			name:    "exact glob match",
			ignore:  []string{"*.tmp"},
			path:    "build.tmp",
			ignored: true,
		},
		{
			name:    "double star pattern",
			ignore:  []string{"**/node_modules/**"},
			path:    "web/node_modules/react/index.js",
			ignored: true,
		},
		{
			name:    "substring match on trimmed pattern",
			ignore:  []string{"*dist*"},
			path:    "apps/web/dist/bundle.js",
			ignored: true,
		},
		{
			name:    "unrelated path",
			ignore:  []string{"**/.git/**", "*.tmp"},
			path:    "src/watcher.go",
			ignored: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Watcher{ignore: tt.ignore, log: logger.Discard()}
			assert.Equal(t, tt.ignored, w.shouldIgnore(tt.path))
		})
	}
}

func TestWatcher_EmitsWriteEvents(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main\n"), 0644))

	w, err := New([]string{dir}, nil, logger.Discard())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan error, 1)
	go func() {
		started <- w.Start(ctx)
	}()

	// Give the watch registration a moment before touching the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("package main // changed\n"), 0644))

	select {
	case ev := <-w.Events():
		assert.Equal(t, file, ev.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("no event within deadline")
	}

	cancel()
	assert.ErrorIs(t, <-started, context.Canceled)
}

func TestWatcher_IgnoredPathsProduceNoEvents(t *testing.T) {
	dir := t.TempDir()

	w, err := New([]string{dir}, []string{"*.log"}, logger.Discard())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "noise.log"), []byte("x"), 0644))

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for %s", ev.Path)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_ClosesEventsOnStop(t *testing.T) {
	dir := t.TempDir()

	w, err := New([]string{dir}, nil, logger.Discard())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- w.Start(context.Background())
	}()
	time.Sleep(100 * time.Millisecond)

	w.Stop()
	require.NoError(t, <-done)

	_, open := <-w.Events()
	assert.False(t, open)
}
