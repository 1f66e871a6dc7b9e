// Package redirect produces the site files that redirect page aliases and
// component entry points to their pages.
package redirect

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"path"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/playbook"
	"git.home.luguber.info/inful/docsite/internal/sitefile"
)

// Output paths of the server configuration facilities.
const (
	NetlifyFile = "_redirects"
	NginxFile   = ".etc/nginx/rewrite.conf"
)

// Redirect maps a vacated location to the URL of a page. Both URLs are
// site-root-relative.
type Redirect struct {
	FromPath string
	FromURL  string
	ToURL    string
}

// ProduceRedirects is the default redirect producer.
func ProduceRedirects(pb *playbook.Playbook, catalog *content.Catalog) ([]*model.File, error) {
	redirects := Collect(pb, catalog)
	switch pb.URLs.RedirectFacility {
	case playbook.RedirectDisabled:
		return nil, nil
	case playbook.RedirectNetlify:
		return single(NetlifyFile, netlifyRules(pb, redirects))
	case playbook.RedirectNginx:
		return single(NginxFile, nginxRules(pb, redirects))
	case playbook.RedirectStatic, "":
		return staticPages(pb, redirects)
	default:
		return nil, derrors.ConfigFieldInvalid("urls.redirect_facility", string(pb.URLs.RedirectFacility))
	}
}

// Collect gathers alias and start page redirects sorted by source path.
func Collect(pb *playbook.Playbook, catalog *content.Catalog) []Redirect {
	seen := make(map[string]bool)
	var out []Redirect
	add := func(r Redirect) {
		if r.FromURL == r.ToURL || seen[r.FromPath] {
			return
		}
		seen[r.FromPath] = true
		out = append(out, r)
	}

	for _, page := range catalog.Pages(nil) {
		if page.Pub == nil {
			continue
		}
		for _, alias := range page.Aliases {
			r, ok := aliasRedirect(catalog, page, alias)
			if ok {
				add(r)
			}
		}
	}

	style := catalog.ExtensionStyle()
	for _, comp := range catalog.Components() {
		for _, cv := range comp.Versions {
			start := catalog.StartPage(cv)
			if start == nil || start.Pub == nil {
				continue
			}
			ctx := model.Src{Component: cv.Component, Version: cv.Version, Module: content.RootModule, Family: model.FamilyPage, Relative: "index.md"}
			if hasIndexPage(catalog, ctx) {
				continue
			}
			out, pub := catalog.Publication(ctx)
			add(Redirect{FromPath: out.Path, FromURL: pub.URL, ToURL: start.Pub.URL})
		}
		latest := comp.Latest()
		if comp.Name == content.RootComponent || latest == nil || latest.Version == content.UnversionedVersion {
			continue
		}
		if start := catalog.StartPage(latest); start != nil && start.Pub != nil {
			add(Redirect{FromPath: path.Join(comp.Name, "index.html"), FromURL: indexURL(style, comp.Name), ToURL: start.Pub.URL})
		}
	}

	if ref := pb.Site.StartPage; ref != "" {
		start := catalog.ResolvePage(ref, model.Src{})
		switch {
		case start == nil || start.Pub == nil:
			slog.Warn("Site start page not found", slog.String("start_page", ref))
		case !hasIndexPage(catalog, model.Src{Component: content.RootComponent, Version: content.UnversionedVersion, Module: content.RootModule}):
			add(Redirect{FromPath: "index.html", FromURL: indexURL(style, ""), ToURL: start.Pub.URL})
		}
	}

	slices.SortFunc(out, func(a, b Redirect) int { return strings.Compare(a.FromPath, b.FromPath) })
	return out
}

func aliasRedirect(catalog *content.Catalog, page *model.File, alias string) (Redirect, bool) {
	key, ok := catalog.PageKey(alias, page.Src)
	if !ok {
		slog.Warn("Invalid page alias", slog.String("alias", alias), logfields.Path(page.Path))
		return Redirect{}, false
	}
	if path.Ext(key.Relative) == "" {
		key.Relative += ".md"
	}
	if existing := catalog.Find(key); existing != nil {
		slog.Warn("Page alias collides with an existing page", slog.String("alias", alias), logfields.Path(page.Path))
		return Redirect{}, false
	}
	out, pub := catalog.Publication(model.Src{
		Component: key.Component,
		Version:   key.Version,
		Module:    key.Module,
		Family:    model.FamilyPage,
		Relative:  key.Relative,
	})
	return Redirect{FromPath: out.Path, FromURL: pub.URL, ToURL: page.Pub.URL}, true
}

func hasIndexPage(catalog *content.Catalog, ctx model.Src) bool {
	for _, rel := range []string{"index.md", "index.html"} {
		if catalog.Find(content.Key{Component: ctx.Component, Version: ctx.Version, Module: content.RootModule, Family: model.FamilyPage, Relative: rel}) != nil {
			return true
		}
	}
	return false
}

func indexURL(style content.ExtensionStyle, dir string) string {
	if style == content.ExtensionStyleDefault || style == "" {
		return "/" + path.Join(dir, "index.html")
	}
	if dir == "" {
		return "/"
	}
	return "/" + dir + "/"
}

func sitePath(pb *playbook.Playbook) string {
	u, err := url.Parse(pb.Site.URL)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Path, "/")
}

func single(p string, contents string) ([]*model.File, error) {
	f, err := sitefile.New(p, contents, model.MediaTypeText)
	if err != nil {
		return nil, err
	}
	return []*model.File{f}, nil
}

func netlifyRules(pb *playbook.Playbook, redirects []Redirect) string {
	prefix := sitePath(pb)
	var b strings.Builder
	for _, r := range redirects {
		fmt.Fprintf(&b, "%s %s 301!\n", prefix+r.FromURL, prefix+r.ToURL)
	}
	return b.String()
}

func nginxRules(pb *playbook.Playbook, redirects []Redirect) string {
	prefix := sitePath(pb)
	var b strings.Builder
	for _, r := range redirects {
		fmt.Fprintf(&b, "location = %s { return 301 %s; }\n", prefix+r.FromURL, prefix+r.ToURL)
	}
	return b.String()
}

var staticPage = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<meta charset="utf-8">
{{with .Canonical}}<link rel="canonical" href="{{.}}">
{{end}}<script>location={{.URL}}</script>
<meta http-equiv="refresh" content="0; url={{.URL}}">
<meta name="robots" content="noindex">
<title>Redirect Notice</title>
<h1>Redirect Notice</h1>
<p>The page you requested has been relocated to <a href="{{.URL}}">{{.Shown}}</a>.</p>
`))

type staticData struct {
	URL       string
	Canonical string
	Shown     string
}

func staticPages(pb *playbook.Playbook, redirects []Redirect) ([]*model.File, error) {
	out := make([]*model.File, 0, len(redirects))
	for _, r := range redirects {
		data := staticData{URL: content.RelativeURL(r.FromURL, r.ToURL)}
		data.Shown = data.URL
		if pb.Site.URL != "" {
			data.Canonical = pb.Site.URL + r.ToURL
			data.Shown = data.Canonical
		}
		body, err := renderStatic(data)
		if err != nil {
			return nil, err
		}
		f, err := sitefile.New(r.FromPath, body, model.MediaTypeHTML)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func renderStatic(data staticData) ([]byte, error) {
	var buf bytes.Buffer
	if err := staticPage.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
