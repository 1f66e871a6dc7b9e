package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// BuildFunc generates the site once.
type BuildFunc func(ctx context.Context, recorder metrics.Recorder) error

// Config configures a Daemon.
type Config struct {
	// Addr is the listen address of the HTTP server, e.g. ":8080".
	Addr string
	// OutputDir is the directory served at /.
	OutputDir string
	// Schedule is a duration or cron expression; empty disables scheduling.
	Schedule string
	// WatchPaths are local content directories that trigger rebuilds.
	WatchPaths []string
	// QuietWindow coalesces bursts of file changes.
	QuietWindow time.Duration
}

// Daemon rebuilds and serves a site until its context is canceled.
type Daemon struct {
	cfg      Config
	build    BuildFunc
	registry *prom.Registry
	recorder metrics.Recorder
	status   buildStatus
}

// New returns a daemon that calls build for every rebuild. Metrics are
// registered in a fresh Prometheus registry.
func New(cfg Config, build BuildFunc) *Daemon {
	reg := prom.NewRegistry()
	d := &Daemon{
		cfg:      cfg,
		build:    build,
		registry: reg,
		recorder: metrics.NewPrometheusRecorder(reg),
	}
	d.status.s.StartedAt = time.Now()
	return d
}

// Status returns a snapshot of the build state.
func (d *Daemon) Status() Status { return d.status.snapshot() }

// Rebuild runs one build and records its outcome.
func (d *Daemon) Rebuild(ctx context.Context) error {
	d.status.start()
	start := time.Now()
	err := d.build(ctx, d.recorder)
	d.status.finish(time.Since(start), err)
	if err != nil {
		slog.Warn("Rebuild failed", logfields.Error(err))
	}
	return err
}

// Run performs an initial build, then serves and rebuilds until ctx is done.
// A failing initial build is reported through the status endpoint; the
// daemon keeps running so later changes can fix it.
func (d *Daemon) Run(ctx context.Context) error {
	_ = d.Rebuild(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rb := newRebuilder(d.cfg.QuietWindow, func(ctx context.Context) { _ = d.Rebuild(ctx) })
	go rb.Run(ctx)

	if d.cfg.Schedule != "" {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleRebuild(d.cfg.Schedule, rb.request); err != nil {
			return err
		}
		sched.Start(ctx)
		defer func() {
			if err := sched.Stop(context.Background()); err != nil {
				slog.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	if len(d.cfg.WatchPaths) > 0 {
		w, err := NewWatcher(d.cfg.WatchPaths, rb.Trigger)
		if err != nil {
			return err
		}
		go w.Run(ctx)
		slog.Info("Watching local content", slog.Int("paths", len(d.cfg.WatchPaths)))
	}

	ln, err := net.Listen("tcp", d.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.cfg.Addr, err)
	}
	srv := &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("Serving site", logfields.URL("http://"+ln.Addr().String()), logfields.Path(d.cfg.OutputDir))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	slog.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}
