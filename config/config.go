package config

import (
	"time"

	"github.com/pkg/errors"
)

// FileName is the config file settle looks for, walking upward from the
// working directory.
const FileName = "settle.yml"

// Config is the contents of settle.yml.
type Config struct {
	// Settle is the debounce window: how long the filesystem must stay
	// quiet before the command runs.
	Settle time.Duration `koanf:"settle"`
	// Paths are the roots to watch recursively.
	Paths []string `koanf:"paths"`
	// Ignore holds glob patterns for paths whose events are dropped.
	Ignore []string `koanf:"ignore"`
	// Command is the shell command to run once things settle.
	Command string            `koanf:"command"`
	Shell   string            `koanf:"shell"`
	Env     map[string]string `koanf:"env"`
	// KeepGoing rebuilds the pipeline after a failed run instead of
	// exiting.
	KeepGoing bool `koanf:"keep_going"`
}

func (c *Config) SetDefaults() {
	if c.Settle <= 0 {
		c.Settle = 300 * time.Millisecond
	}
	if len(c.Paths) == 0 {
		c.Paths = []string{"."}
	}
	if c.Shell == "" {
		c.Shell = "/bin/sh"
	}
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	if c.Ignore == nil {
		c.Ignore = []string{}
	}
}

func (c *Config) Validate() error {
	if c.Command == "" {
		return errors.New("config: command is required")
	}
	return nil
}

// DefaultYAML is the starter file written by `settle init`.
const DefaultYAML = `# settle.yml
settle: 300ms
paths:
  - .
ignore:
  - "**/.git/**"
  - "**/node_modules/**"
command: "make build"
shell: /bin/sh
env: {}
keep_going: false
`
