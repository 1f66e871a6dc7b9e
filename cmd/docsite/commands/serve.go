package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docsite/internal/aggregate"
	"git.home.luguber.info/inful/docsite/internal/daemon"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/playbook"
)

// ServeCmd implements the 'serve' command. Generator arguments follow the
// serve flags, separated by "--" when they start with a flag.
type ServeCmd struct {
	Port     int    `short:"p" default:"8080" help:"HTTP port"`
	Schedule string `help:"Rebuild interval (e.g. 15m) or five field cron expression"`
	Watch    bool   `help:"Rebuild when files in local content sources change"`

	Args []string `arg:"" optional:"" passthrough:"" help:"Generator flags followed by the playbook file"`
}

func (s *ServeCmd) Run(ctx context.Context, root *CLI) error {
	env := environ()
	pb, err := playbook.Build(s.Args, env)
	if err != nil {
		return err
	}
	if err := root.configureLogging(pb); err != nil {
		return err
	}
	cfg, err := s.daemonConfig(pb)
	if err != nil {
		return err
	}

	// Every rebuild resolves the playbook again so edits to it take effect.
	build := func(ctx context.Context, rec metrics.Recorder) error {
		_, err := newGenerator(rec, nil).Generate(ctx, s.Args, env)
		return err
	}
	slog.Info("Starting docsite server",
		logfields.Path(cfg.OutputDir),
		slog.String("schedule", cfg.Schedule),
		slog.Int("watched_paths", len(cfg.WatchPaths)))
	return daemon.New(cfg, build).Run(ctx)
}

func (s *ServeCmd) daemonConfig(pb *playbook.Playbook) (daemon.Config, error) {
	if pb.Output.Dir == "" {
		return daemon.Config{}, derrors.ConfigRequired("output.dir")
	}
	cfg := daemon.Config{
		Addr:      fmt.Sprintf(":%d", s.Port),
		OutputDir: pb.Output.Dir,
		Schedule:  s.Schedule,
	}
	if s.Watch {
		cfg.WatchPaths = aggregate.LocalPaths(pb)
		if len(cfg.WatchPaths) == 0 {
			slog.Warn("--watch has no effect: playbook has no local content sources")
		}
	}
	return cfg, nil
}
