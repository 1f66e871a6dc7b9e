package generator

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/notify"
	"git.home.luguber.info/inful/docsite/internal/observability"
	"git.home.luguber.info/inful/docsite/internal/publish"
)

// sideChannelTimeout bounds history and notification writes so a slow
// store or broker cannot hold up the caller.
const sideChannelTimeout = 10 * time.Second

// finish reports the run outcome to metrics, history, and the notifier.
// Failures here are logged and never change the run's result.
func (g *Generator) finish(ctx context.Context, r *run, res *publish.Result, runErr error) {
	d := time.Since(r.started)
	g.recorder.ObserveRunDuration(d)
	g.recorder.IncRunOutcome(resultLabel(runErr))
	if res != nil {
		for _, dest := range res.Destinations {
			g.recorder.AddPublishedFiles(dest.Provider, dest.Files)
		}
	}

	outcome := history.OutcomeSuccess
	errText := ""
	if runErr != nil {
		outcome = history.OutcomeFailed
		errText = runErr.Error()
		observability.ErrorContext(ctx, "Site generation failed", logfields.Error(runErr), slog.Int64("duration_ms", d.Milliseconds()))
	} else {
		observability.InfoContext(ctx, "Site generated", logfields.Count(res.Files()), slog.Int64("duration_ms", d.Milliseconds()))
	}

	// the caller's context may already be canceled; reporting still runs
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideChannelTimeout)
	defer cancel()

	r.mu.Lock()
	stages := maps.Clone(r.stages)
	r.mu.Unlock()

	if h, closeFn := g.historyFor(r); h != nil {
		err := h.Record(sctx, history.Run{
			ID:        r.id,
			Playbook:  r.pb.File,
			StartedAt: r.started,
			Duration:  d,
			Outcome:   outcome,
			Files:     res.Files(),
			Error:     errText,
			Stages:    stages,
		})
		if err != nil {
			observability.WarnContext(sctx, "Failed to record run history", logfields.Error(err))
		}
		closeFn()
	}

	if n, closeFn := g.notifierFor(r); n != nil {
		event := notify.SitePublished{
			RunID:      r.id,
			Playbook:   r.pb.File,
			SiteURL:    r.pb.Site.URL,
			Outcome:    outcome,
			Error:      errText,
			DurationMS: d.Milliseconds(),
		}
		if res != nil {
			event.Destinations = res.Destinations
		}
		if err := n.Publish(sctx, event); err != nil {
			observability.WarnContext(sctx, "Failed to publish build event", logfields.Error(err))
		}
		closeFn()
	}
}

func (g *Generator) historyFor(r *run) (history.Recorder, func()) {
	if g.history != nil {
		return g.history, func() {}
	}
	if r.pb.History.DB == "" {
		return nil, nil
	}
	store, err := history.Open(r.pb.History.DB)
	if err != nil {
		slog.Warn("Failed to open run history", logfields.Path(r.pb.History.DB), logfields.Error(err))
		return nil, nil
	}
	return store, func() { _ = store.Close() }
}

func (g *Generator) notifierFor(r *run) (EventPublisher, func()) {
	if g.notifier != nil {
		return g.notifier, func() {}
	}
	if r.pb.Notify.NATS.URL == "" {
		return nil, nil
	}
	n, err := notify.Connect(r.pb.Notify.NATS.URL, r.pb.Notify.NATS.Subject)
	if err != nil {
		slog.Warn("Failed to connect build notifier", logfields.URL(r.pb.Notify.NATS.URL), logfields.Error(err))
		return nil, nil
	}
	return n, n.Close
}
