// Package generator runs the site generation pipeline: it resolves the
// playbook, aggregates content and loads the UI in parallel, then converts,
// composes, maps, and publishes the site.
package generator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsite/internal/compose"
	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/navigation"
	"git.home.luguber.info/inful/docsite/internal/notify"
	"git.home.luguber.info/inful/docsite/internal/observability"
	"git.home.luguber.info/inful/docsite/internal/playbook"
	"git.home.luguber.info/inful/docsite/internal/publish"
	"git.home.luguber.info/inful/docsite/internal/sitefile"
	"git.home.luguber.info/inful/docsite/internal/ui"
)

// Stage names used for spans, metrics, and run history.
const (
	StageAggregate = "aggregate"
	StageLoadUI    = "load_ui"
	StageConvert   = "convert"
	StageNavigate  = "navigation"
	StageCompose   = "compose"
	StageMap       = "map"
	StagePublish   = "publish"
)

// EventPublisher announces completed runs.
type EventPublisher interface {
	Publish(ctx context.Context, event notify.SitePublished) error
}

// Generator sequences the collaborators for one run at a time.
type Generator struct {
	c        Collaborators
	recorder metrics.Recorder
	history  history.Recorder
	notifier EventPublisher
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder reports stage and run metrics to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithHistory records every run in h instead of the playbook's history database.
func WithHistory(h history.Recorder) Option {
	return func(g *Generator) { g.history = h }
}

// WithNotifier announces runs through p instead of the playbook's NATS settings.
func WithNotifier(p EventPublisher) Option {
	return func(g *Generator) { g.notifier = p }
}

// New returns a generator using c.
func New(c Collaborators, opts ...Option) *Generator {
	g := &Generator{c: c, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateSite runs the pipeline with the default collaborators.
func GenerateSite(ctx context.Context, args []string, env map[string]string) (*publish.Result, error) {
	return New(DefaultCollaborators()).Generate(ctx, args, env)
}

type run struct {
	id      string
	pb      *playbook.Playbook
	started time.Time
	mu      sync.Mutex
	stages  map[string]time.Duration
}

// Generate runs the pipeline once. Collaborator errors are returned as is.
func (g *Generator) Generate(ctx context.Context, args []string, env map[string]string) (res *publish.Result, err error) {
	pb, err := g.c.BuildPlaybook(args, env)
	if err != nil {
		g.recorder.IncRunOutcome(metrics.ResultFailed)
		return nil, err
	}
	r := &run{id: uuid.NewString(), pb: pb, started: time.Now(), stages: make(map[string]time.Duration)}
	ctx = observability.WithRunID(ctx, r.id)
	observability.InfoContext(ctx, "Generating site", slog.String("playbook", pb.File))
	defer func() { g.finish(ctx, r, res, err) }()

	cfg := g.c.ResolveMarkupConfig(pb)

	var (
		catalog        *content.Catalog
		uiCatalog      *ui.Catalog
		aggErr, uiErr  error
		eg, siblingCtx = errgroup.WithContext(ctx)
	)
	eg.Go(func() error {
		aggErr = g.stage(siblingCtx, r, StageAggregate, func(ctx context.Context) error {
			agg, err := g.c.AggregateContent(ctx, pb)
			if err != nil {
				return err
			}
			htmlPages := collectHTMLPages(agg)
			c, err := g.c.ClassifyContent(pb, agg, cfg)
			if err != nil {
				return err
			}
			if err := insertHTMLPages(c, htmlPages); err != nil {
				return err
			}
			catalog = c
			return nil
		})
		return aggErr
	})
	eg.Go(func() error {
		uiErr = g.stage(siblingCtx, r, StageLoadUI, func(ctx context.Context) error {
			var err error
			uiCatalog, err = g.c.LoadUI(ctx, pb)
			return err
		})
		return uiErr
	})
	_ = eg.Wait()
	if err := joinError(ctx, aggErr, uiErr); err != nil {
		return nil, err
	}

	var pages []*model.File
	if err := g.stage(ctx, r, StageConvert, func(context.Context) error {
		var err error
		pages, err = g.c.ConvertDocuments(catalog, cfg)
		return err
	}); err != nil {
		return nil, err
	}

	var nav *navigation.Catalog
	if err := g.stage(ctx, r, StageNavigate, func(context.Context) error {
		var err error
		nav, err = g.c.BuildNavigation(catalog, cfg)
		return err
	}); err != nil {
		return nil, err
	}

	var (
		composePage compose.Func
		composed    = make([]*model.File, 0, len(pages))
	)
	if err := g.stage(ctx, r, StageCompose, func(context.Context) error {
		var err error
		composePage, err = g.c.CreatePageComposer(pb, catalog, uiCatalog, env)
		if err != nil {
			return err
		}
		for _, page := range pages {
			out, err := composePage(page, catalog, nav)
			if err != nil {
				return err
			}
			composed = append(composed, out)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var siteFiles []*model.File
	if err := g.stage(ctx, r, StageMap, func(context.Context) error {
		mapped, err := g.c.MapSite(pb, composed)
		if err != nil {
			return err
		}
		redirects, err := g.c.ProduceRedirects(pb, catalog)
		if err != nil {
			return err
		}
		siteFiles = append(mapped, redirects...)
		if pb.Site.URL != "" {
			notFound, err := composePage(sitefile.NotFoundPage(), catalog, nav)
			if err != nil {
				return err
			}
			siteFiles = append(siteFiles, notFound)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	siteCatalog := model.NewFileList(siteFiles)

	var result *publish.Result
	if err := g.stage(ctx, r, StagePublish, func(ctx context.Context) error {
		var err error
		result, err = g.c.PublishSite(ctx, pb, []model.Collection{catalog, uiCatalog, siteCatalog})
		return err
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// joinError prefers the aggregation error unless it is only the cancellation
// caused by the UI branch failing first.
func joinError(ctx context.Context, aggErr, uiErr error) error {
	if aggErr != nil {
		if uiErr != nil && ctx.Err() == nil && errors.Is(aggErr, context.Canceled) {
			return uiErr
		}
		return aggErr
	}
	return uiErr
}

func (g *Generator) stage(ctx context.Context, r *run, name string, fn func(context.Context) error) error {
	ctx, span := observability.StartStageSpan(ctx, name)
	err := fn(ctx)
	span.RecordError(err)
	d := span.End()

	r.mu.Lock()
	r.stages[name] = d
	r.mu.Unlock()

	g.recorder.ObserveStageDuration(name, d)
	g.recorder.IncStageResult(name, resultLabel(err))
	return err
}

func resultLabel(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}

// collectHTMLPages returns a copy of every pre-rendered HTML file tagged with
// its component version and the page family.
func collectHTMLPages(agg model.Aggregate) []*model.File {
	var out []*model.File
	for _, cv := range agg {
		for _, f := range cv.Files {
			if f.MediaType != model.MediaTypeHTML {
				continue
			}
			c := f.Clone()
			c.Src.Component = cv.Name
			c.Src.Version = cv.Version
			c.Src.Family = model.FamilyPage
			out = append(out, c)
		}
	}
	return out
}

func insertHTMLPages(catalog *content.Catalog, pages []*model.File) error {
	for _, f := range pages {
		module, relative, err := content.ParsePagePath(f.Path)
		if err != nil {
			return derrors.Wrap(err, derrors.CategoryAggregation, derrors.SeverityFatal, "HTML page path is not inside a module").
				WithContext("path", f.Path).WithContext("component", f.Src.Component).WithContext("version", f.Src.Version)
		}
		f.Src.Module = module
		f.Src.Relative = relative
		if err := catalog.AddFile(f); err != nil {
			return derrors.Wrap(err, derrors.CategoryAggregation, derrors.SeverityFatal, "HTML page could not be added").
				WithContext("path", f.Path).WithContext("component", f.Src.Component).WithContext("version", f.Src.Version)
		}
	}
	if len(pages) > 0 {
		slog.Debug("Inserted HTML pages", logfields.Count(len(pages)))
	}
	return nil
}
