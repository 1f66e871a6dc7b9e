// Package commands implements the docsite command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/aggregate"
	"git.home.luguber.info/inful/docsite/internal/generator"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/playbook"
)

// CLI is the root command with its global flags.
type CLI struct {
	Verbose   bool   `short:"v" help:"Enable debug logging"`
	LogFormat string `name:"log-format" help:"Log format (text, json); overrides runtime.log.format"`

	Generate GenerateCmd `cmd:"" passthrough:"" help:"Generate a site once from a playbook"`
	Serve    ServeCmd    `cmd:"" help:"Generate, serve, and regenerate a site"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// AfterApply installs a logger from the global flags. Commands that load a
// playbook reconfigure it once the runtime settings are known.
func (c *CLI) AfterApply() error {
	logger, err := c.logger(os.Stderr, playbook.LogConfig{})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// configureLogging applies the playbook's runtime.log settings under the
// global flags.
func (c *CLI) configureLogging(pb *playbook.Playbook) error {
	logger, err := c.logger(os.Stderr, pb.Runtime.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func (c *CLI) logger(w io.Writer, cfg playbook.LogConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := cfg.Format
	if c.LogFormat != "" {
		format = c.LogFormat
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// environ returns the process environment as a map.
func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// newGenerator returns a generator with the default collaborators, reporting
// run, stage, and source fetch metrics to rec. A non-nil resolve replaces
// playbook resolution, so an already resolved playbook is not read again.
func newGenerator(rec metrics.Recorder, resolve func() (*playbook.Playbook, error)) *generator.Generator {
	c := generator.DefaultCollaborators()
	if resolve != nil {
		c.BuildPlaybook = func([]string, map[string]string) (*playbook.Playbook, error) { return resolve() }
	}
	c.AggregateContent = func(ctx context.Context, pb *playbook.Playbook) (model.Aggregate, error) {
		return aggregate.AggregateWithRecorder(ctx, pb, rec)
	}
	return generator.New(c, generator.WithRecorder(rec))
}
