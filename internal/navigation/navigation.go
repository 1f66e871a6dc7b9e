// Package navigation builds per component version navigation trees from the
// catalog's nav files. A nav file is a markdown document holding a bulleted
// list, optionally preceded by a title line.
package navigation

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markup"
	"git.home.luguber.info/inful/docsite/internal/model"
)

// URL types of navigation items.
const (
	URLTypeInternal = "internal"
	URLTypeExternal = "external"
	URLTypeFragment = "fragment"
)

// Item is one navigation entry. Internal URLs are site-root-relative.
type Item struct {
	Content string
	URL     string
	URLType string
	Items   []*Item
}

// Catalog holds the navigation menus of every component version.
type Catalog struct {
	menus map[string][]*Item
}

// NewCatalog returns an empty navigation catalog.
func NewCatalog() *Catalog {
	return &Catalog{menus: make(map[string][]*Item)}
}

func key(component, version string) string { return version + "@" + component }

// Add appends a menu to a component version.
func (c *Catalog) Add(component, version string, menu *Item) {
	k := key(component, version)
	c.menus[k] = append(c.menus[k], menu)
}

// Menus returns the menus of a component version in nav order.
func (c *Catalog) Menus(component, version string) []*Item {
	if c == nil {
		return nil
	}
	return c.menus[key(component, version)]
}

// Build is the default navigation collaborator.
func Build(catalog *content.Catalog, cfg *markup.Config) (*Catalog, error) {
	nav := NewCatalog()
	md := goldmark.New()
	attrs := map[string]string{}
	if cfg != nil {
		attrs = cfg.Attributes
	}
	for _, comp := range catalog.Components() {
		for _, cv := range comp.Versions {
			files := navFiles(catalog, cv)
			for _, f := range files {
				source := substitute(f.Contents, attrs)
				menu, err := parseMenu(md, source, catalog, f)
				if err != nil {
					return nil, derrors.Wrap(err, derrors.CategoryConversion, derrors.SeverityFatal, "navigation could not be built").
						WithContext("path", f.Path)
				}
				nav.Add(cv.Component, cv.Version, menu)
			}
		}
	}
	return nav, nil
}

// navFiles returns the nav files of cv ordered as listed in its descriptor.
func navFiles(catalog *content.Catalog, cv *content.ComponentVersion) []*model.File {
	var files []*model.File
	for _, f := range catalog.FilesByFamily(model.FamilyNav) {
		if f.Src.Component == cv.Component && f.Src.Version == cv.Version {
			files = append(files, f)
		}
	}
	slices.SortStableFunc(files, func(a, b *model.File) int {
		return slices.Index(cv.Nav, a.Path) - slices.Index(cv.Nav, b.Path)
	})
	return files
}

func substitute(body []byte, attrs map[string]string) []byte {
	if len(attrs) == 0 {
		return body
	}
	s := string(body)
	for k, v := range attrs {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return []byte(s)
}

func parseMenu(md goldmark.Markdown, source []byte, catalog *content.Catalog, navFile *model.File) (*Item, error) {
	doc := md.Parser().Parse(text.NewReader(source))
	menu := &Item{}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph:
			if menu.Content == "" && len(menu.Items) == 0 {
				title := itemFromInline(node, source, catalog, navFile)
				menu.Content, menu.URL, menu.URLType = title.Content, title.URL, title.URLType
			}
		case *ast.List:
			menu.Items = append(menu.Items, listItems(node, source, catalog, navFile)...)
		}
	}
	return menu, nil
}

func listItems(list *ast.List, source []byte, catalog *content.Catalog, navFile *model.File) []*Item {
	var items []*Item
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		item := &Item{}
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.List:
				item.Items = append(item.Items, listItems(node, source, catalog, navFile)...)
			case *ast.TextBlock, *ast.Paragraph:
				if item.Content == "" {
					entry := itemFromInline(node, source, catalog, navFile)
					item.Content, item.URL, item.URLType = entry.Content, entry.URL, entry.URLType
				}
			}
		}
		items = append(items, item)
	}
	return items
}

// itemFromInline builds an item from a block's inline content. The first
// link, if any, provides the URL.
func itemFromInline(block ast.Node, source []byte, catalog *content.Catalog, navFile *model.File) *Item {
	var link *ast.Link
	_ = ast.Walk(block, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if l, ok := n.(*ast.Link); ok && entering && link == nil {
			link = l
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if link == nil {
		return &Item{Content: inlineText(block, source)}
	}
	item := &Item{Content: inlineText(link, source)}
	dest := string(link.Destination)
	switch {
	case strings.HasPrefix(dest, "#"):
		item.URL, item.URLType = dest, URLTypeFragment
	case strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:"):
		item.URL, item.URLType = dest, URLTypeExternal
	default:
		item.URLType = URLTypeInternal
		fragment := ""
		if i := strings.IndexByte(dest, '#'); i >= 0 {
			fragment = dest[i:]
		}
		page := catalog.ResolvePage(dest, navFile.Src)
		if page == nil || page.Pub == nil {
			slog.Warn("Unresolved navigation link", logfields.Path(navFile.Path), logfields.URL(dest))
			item.URL = "#"
			break
		}
		item.URL = page.Pub.URL + fragment
		if item.Content == "" {
			item.Content = page.Title
		}
	}
	return item
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
