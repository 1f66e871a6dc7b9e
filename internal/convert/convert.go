// Package convert renders the catalog's markdown pages to HTML and extracts
// metadata from pre-rendered HTML pages.
package convert

import (
	"bytes"
	"fmt"
	"log/slog"
	"maps"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markup"
	"git.home.luguber.info/inful/docsite/internal/model"
)

// Converter renders pages of one catalog.
type Converter struct {
	catalog *content.Catalog
	cfg     *markup.Config
	md      goldmark.Markdown
}

// New creates a converter for catalog.
func New(catalog *content.Catalog, cfg *markup.Config) *Converter {
	if cfg == nil {
		cfg = &markup.Config{}
	}
	return &Converter{catalog: catalog, cfg: cfg, md: NewMarkdown(cfg)}
}

// Convert is the default conversion collaborator. It converts every
// publishable markdown page in place and returns all publishable pages in
// catalog order. HTML pages are never re-rendered.
func Convert(catalog *content.Catalog, cfg *markup.Config) ([]*model.File, error) {
	c := New(catalog, cfg)
	var pages []*model.File
	for _, page := range catalog.Pages(func(f *model.File) bool { return f.Publishable() }) {
		if err := c.ConvertPage(page); err != nil {
			return nil, derrors.ConversionFailed(page.Path, err).
				WithContext("component", page.Src.Component).
				WithContext("version", page.Src.Version)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// ConvertPage converts one page in place.
func (c *Converter) ConvertPage(page *model.File) error {
	switch page.MediaType {
	case model.MediaTypeHTML:
		page.Attributes = c.attributes(page, nil)
		if page.Title == "" {
			page.Title = HTMLTitle(page.Contents)
		}
		return nil
	case model.MediaTypeMarkdown:
		return c.convertMarkdown(page)
	default:
		return fmt.Errorf("unsupported page media type %q", page.MediaType)
	}
}

func (c *Converter) convertMarkdown(page *model.File) error {
	fm, body, _, err := frontmatter.Split(page.Contents)
	if err != nil {
		return err
	}
	meta, err := frontmatter.Decode(fm)
	if err != nil {
		return err
	}
	page.Fingerprint = frontmatter.Fingerprint(fm, body)

	attrs := c.attributes(page, meta.Attributes)
	source := SubstituteAttributes(body, attrs)
	doc := c.md.Parser().Parse(text.NewReader(source))

	title := string(SubstituteAttributes([]byte(meta.Title), attrs))
	if h, ok := doc.FirstChild().(*ast.Heading); ok && h.Level == 1 {
		if title == "" {
			title = nodeText(h, source)
		}
		doc.RemoveChild(doc, h)
	}
	c.rewriteReferences(page, doc)

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, source, doc); err != nil {
		return err
	}
	page.Contents = buf.Bytes()
	page.MediaType = model.MediaTypeHTML
	page.Title = title
	page.Layout = meta.Layout
	page.Aliases = meta.Aliases
	page.Attributes = attrs
	if meta.NavTitle != "" {
		page.Attributes["navtitle"] = meta.NavTitle
	}
	if meta.Description != "" {
		page.Attributes["description"] = meta.Description
	}
	return nil
}

// attributes layers global, page-intrinsic, and front matter attributes.
func (c *Converter) attributes(page *model.File, fromPage map[string]string) map[string]string {
	attrs := maps.Clone(c.cfg.Attributes)
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["page-component-name"] = page.Src.Component
	attrs["page-component-version"] = page.Src.Version
	attrs["page-module"] = page.Src.Module
	attrs["page-relative-src-path"] = page.Src.Relative
	if cv := c.catalog.ComponentVersion(page.Src.Component, page.Src.Version); cv != nil {
		attrs["page-component-title"] = cv.Title
		attrs["page-component-display-version"] = cv.DisplayVersion
	}
	if o := page.Src.Origin; o != nil {
		attrs["page-origin-url"] = o.URL
		if o.Ref != "" {
			attrs["page-origin-refname"] = o.Ref
		}
	}
	maps.Copy(attrs, fromPage)
	return attrs
}

func (c *Converter) rewriteReferences(page *model.File, doc ast.Node) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			if dest, ok := c.resolvePageLink(page, string(node.Destination)); ok {
				node.Destination = []byte(dest)
			}
		case *ast.Image:
			if dest, ok := c.resolveImage(page, string(node.Destination)); ok {
				node.Destination = []byte(dest)
			}
		}
		return ast.WalkContinue, nil
	})
}

func isExternal(dest string) bool {
	return dest == "" || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") ||
		strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:")
}

// resolvePageLink maps a link to a markdown page onto the target page's URL,
// relative to the linking page. Plain paths resolve against the linking
// page's directory; references containing ':' or '@' use the page reference
// syntax of content.Catalog.ResolvePage.
func (c *Converter) resolvePageLink(page *model.File, dest string) (string, bool) {
	if isExternal(dest) {
		return "", false
	}
	target, fragment := dest, ""
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		target, fragment = dest[:i], dest[i:]
	}
	if !strings.HasSuffix(target, ".md") {
		return "", false
	}
	ref := target
	if !strings.ContainsAny(target, ":@") {
		ref = path.Join(path.Dir(page.Src.Relative), target)
		if strings.HasPrefix(ref, "../") {
			slog.Warn("Page link leaves its module", logfields.Path(page.Path), logfields.URL(dest))
			return "", false
		}
	}
	resolved := c.catalog.ResolvePage(ref, page.Src)
	if resolved == nil || resolved.Pub == nil {
		slog.Warn("Unresolved page link", logfields.Path(page.Path), logfields.URL(dest))
		return "", false
	}
	return content.RelativeURL(page.Pub.URL, resolved.Pub.URL+fragment), true
}

// resolveImage maps an image path relative to the module's images directory
// onto the published image URL.
func (c *Converter) resolveImage(page *model.File, dest string) (string, bool) {
	if isExternal(dest) {
		return "", false
	}
	img := c.catalog.Find(content.Key{
		Component: page.Src.Component,
		Version:   page.Src.Version,
		Module:    page.Src.Module,
		Family:    model.FamilyImage,
		Relative:  path.Clean(dest),
	})
	if img == nil || img.Pub == nil {
		return "", false
	}
	return content.RelativeURL(page.Pub.URL, img.Pub.URL), true
}

// nodeText concatenates the text segments below n.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.CodeSpan:
			for child := t.FirstChild(); child != nil; child = child.NextSibling() {
				if txt, ok := child.(*ast.Text); ok {
					b.Write(txt.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
