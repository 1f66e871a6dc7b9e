// Package ui loads a UI bundle: page layouts, partials, and the static
// assets published alongside the site.
package ui

import (
	"path"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/model"
)

// Kinds of files in a UI bundle.
const (
	KindLayout  = "layout"
	KindPartial = "partial"
	KindAsset   = "asset"
	KindStatic  = "static"
)

// DescriptorFile configures a bundle.
const DescriptorFile = "ui.yml"

// Catalog is the loaded UI. It is read-only once Load returns.
type Catalog struct {
	outputDir string
	layouts   map[string]*model.File
	partials  map[string]*model.File
	assets    []*model.File
}

func newCatalog(outputDir string) *Catalog {
	return &Catalog{
		outputDir: outputDir,
		layouts:   make(map[string]*model.File),
		partials:  make(map[string]*model.File),
	}
}

// OutputDir is the site directory assets are published under.
func (c *Catalog) OutputDir() string { return c.outputDir }

// Layout returns the named layout, or nil.
func (c *Catalog) Layout(name string) *model.File { return c.layouts[name] }

// LayoutNames returns the layout names in sorted order.
func (c *Catalog) LayoutNames() []string { return sortedKeys(c.layouts) }

// Partials returns the partials keyed by name.
func (c *Catalog) Partials() map[string]*model.File { return c.partials }

// AllFiles returns the publishable assets of the bundle.
func (c *Catalog) AllFiles() []*model.File { return slices.Clone(c.assets) }

// add places a bundle file by its path. Static files are published at the
// site root; other non-template files under the output directory.
func (c *Catalog) add(rel string, data []byte, static func(string) bool) {
	switch {
	case rel == DescriptorFile:
		return
	case strings.HasPrefix(rel, "layouts/") && path.Ext(rel) == ".html":
		c.layouts[strings.TrimSuffix(strings.TrimPrefix(rel, "layouts/"), ".html")] = templateFile(rel, data, KindLayout)
		return
	case strings.HasPrefix(rel, "partials/") && path.Ext(rel) == ".html":
		c.partials[strings.TrimSuffix(strings.TrimPrefix(rel, "partials/"), ".html")] = templateFile(rel, data, KindPartial)
		return
	}
	kind, out := KindAsset, path.Join(c.outputDir, rel)
	if static(rel) {
		kind, out = KindStatic, rel
	}
	f := &model.File{
		Path:      rel,
		Contents:  data,
		MediaType: model.MediaTypeFor(rel),
		Src:       model.Src{Family: model.Family(kind), Relative: rel, Basename: path.Base(rel), Extname: path.Ext(rel)},
		Out:       model.NewOut(out),
		Pub:       &model.Pub{URL: "/" + out},
	}
	f.Pub.RootPath = f.Out.RootPath
	c.assets = slices.DeleteFunc(c.assets, func(a *model.File) bool { return a.Path == rel })
	c.assets = append(c.assets, f)
}

func templateFile(rel string, data []byte, kind string) *model.File {
	return &model.File{
		Path:      rel,
		Contents:  data,
		MediaType: model.MediaTypeHTML,
		Src:       model.Src{Family: model.Family(kind), Relative: rel, Basename: path.Base(rel), Extname: path.Ext(rel)},
	}
}

func sortedKeys(m map[string]*model.File) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
