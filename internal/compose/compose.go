// Package compose wraps converted pages in the UI's layouts.
package compose

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/navigation"
	"git.home.luguber.info/inful/docsite/internal/playbook"
	"git.home.luguber.info/inful/docsite/internal/ui"
)

// Func composes one page. catalog and nav may be nil; the composer then uses
// the catalog it was created with and renders no navigation.
type Func func(page *model.File, catalog *content.Catalog, nav *navigation.Catalog) (*model.File, error)

type composer struct {
	pb            *playbook.Playbook
	catalog       *content.Catalog
	env           map[string]string
	layouts       map[string]*template.Template
	defaultLayout string
	uiOutputDir   string
	sitePath      string
}

// CreatePageComposer is the default page composer factory. Every layout of
// uiCatalog is compiled once, with all partials available as named templates.
func CreatePageComposer(pb *playbook.Playbook, catalog *content.Catalog, uiCatalog *ui.Catalog, env map[string]string) (Func, error) {
	base := template.New("").Funcs(funcMap)
	for name, partial := range uiCatalog.Partials() {
		if _, err := base.New(name).Parse(string(partial.Contents)); err != nil {
			return nil, derrors.CompositionFailed(partial.Path, err)
		}
	}
	layouts := make(map[string]*template.Template)
	for _, name := range uiCatalog.LayoutNames() {
		layout := uiCatalog.Layout(name)
		t, err := base.Clone()
		if err != nil {
			return nil, derrors.CompositionFailed(layout.Path, err)
		}
		if _, err := t.New("layout:" + name).Parse(string(layout.Contents)); err != nil {
			return nil, derrors.CompositionFailed(layout.Path, err)
		}
		layouts[name] = t
	}

	c := &composer{
		pb:            pb,
		catalog:       catalog,
		env:           env,
		layouts:       layouts,
		defaultLayout: pb.UI.DefaultLayout,
		uiOutputDir:   uiCatalog.OutputDir(),
	}
	if u, err := url.Parse(pb.Site.URL); err == nil {
		c.sitePath = strings.TrimRight(u.Path, "/")
	}
	return c.compose, nil
}

var funcMap = template.FuncMap{
	"join":  strings.Join,
	"lower": strings.ToLower,
	"attr": func(attrs map[string]string, name string) string {
		return attrs[name]
	},
}

func (c *composer) compose(page *model.File, catalog *content.Catalog, nav *navigation.Catalog) (*model.File, error) {
	if catalog == nil {
		catalog = c.catalog
	}
	name := page.Layout
	if name == "" {
		name = c.defaultLayout
	}
	t, ok := c.layouts[name]
	if !ok {
		slog.Warn("Layout not found, using default", slog.String("layout", name), logfields.Path(page.Path))
		name = c.defaultLayout
		t = c.layouts[name]
	}
	if t == nil {
		return nil, derrors.CompositionFailed(page.Path, fmt.Errorf("layout %q not found", name))
	}

	m := c.model(page, catalog, nav)
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout:"+name, m); err != nil {
		return nil, derrors.CompositionFailed(page.Path, err)
	}
	page.Contents = buf.Bytes()
	page.MediaType = model.MediaTypeHTML
	return page, nil
}
