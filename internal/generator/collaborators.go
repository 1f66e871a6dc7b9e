package generator

import (
	"context"

	"git.home.luguber.info/inful/docsite/internal/aggregate"
	"git.home.luguber.info/inful/docsite/internal/classify"
	"git.home.luguber.info/inful/docsite/internal/compose"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/convert"
	"git.home.luguber.info/inful/docsite/internal/markup"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/navigation"
	"git.home.luguber.info/inful/docsite/internal/playbook"
	"git.home.luguber.info/inful/docsite/internal/publish"
	"git.home.luguber.info/inful/docsite/internal/redirect"
	"git.home.luguber.info/inful/docsite/internal/sitemap"
	"git.home.luguber.info/inful/docsite/internal/ui"
)

// Collaborators are the stage implementations the generator sequences.
// Every field must be set; DefaultCollaborators wires the built-in ones.
type Collaborators struct {
	BuildPlaybook       func(args []string, env map[string]string) (*playbook.Playbook, error)
	ResolveMarkupConfig func(pb *playbook.Playbook) *markup.Config
	AggregateContent    func(ctx context.Context, pb *playbook.Playbook) (model.Aggregate, error)
	ClassifyContent     func(pb *playbook.Playbook, agg model.Aggregate, cfg *markup.Config) (*content.Catalog, error)
	LoadUI              func(ctx context.Context, pb *playbook.Playbook) (*ui.Catalog, error)
	ConvertDocuments    func(catalog *content.Catalog, cfg *markup.Config) ([]*model.File, error)
	BuildNavigation     func(catalog *content.Catalog, cfg *markup.Config) (*navigation.Catalog, error)
	CreatePageComposer  func(pb *playbook.Playbook, catalog *content.Catalog, uiCatalog *ui.Catalog, env map[string]string) (compose.Func, error)
	MapSite             func(pb *playbook.Playbook, pages []*model.File) ([]*model.File, error)
	ProduceRedirects    func(pb *playbook.Playbook, catalog *content.Catalog) ([]*model.File, error)
	PublishSite         func(ctx context.Context, pb *playbook.Playbook, collections []model.Collection) (*publish.Result, error)
}

// DefaultCollaborators returns the built-in stage implementations.
func DefaultCollaborators() Collaborators {
	return Collaborators{
		BuildPlaybook:       playbook.Build,
		ResolveMarkupConfig: markup.Resolve,
		AggregateContent:    aggregate.Aggregate,
		ClassifyContent:     classify.Classify,
		LoadUI:              ui.Load,
		ConvertDocuments:    convert.Convert,
		BuildNavigation:     navigation.Build,
		CreatePageComposer:  compose.CreatePageComposer,
		MapSite:             sitemap.MapSite,
		ProduceRedirects:    redirect.ProduceRedirects,
		PublishSite:         publish.PublishSite,
	}
}
