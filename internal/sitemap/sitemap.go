// Package sitemap maps composed pages to site files and optionally writes a
// sitemap.xml that lists them.
package sitemap

import (
	"encoding/xml"
	"slices"
	"strings"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/playbook"
	"git.home.luguber.info/inful/docsite/internal/sitefile"
)

// FileName is the output path of the generated sitemap.
const FileName = "sitemap.xml"

const namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc string `xml:"loc"`
}

// MapSite is the default site mapper. Publishable pages are returned in
// order; a sitemap is appended when enabled and the site URL is known.
func MapSite(pb *playbook.Playbook, pages []*model.File) ([]*model.File, error) {
	out := make([]*model.File, 0, len(pages)+1)
	for _, page := range pages {
		if page.Publishable() {
			out = append(out, page)
		}
	}
	if !pb.Site.Sitemap || pb.Site.URL == "" || len(out) == 0 {
		return out, nil
	}
	f, err := Build(pb.Site.URL, out)
	if err != nil {
		return nil, err
	}
	return append(out, f), nil
}

// Build renders a sitemap of pages with locations sorted for stable output.
func Build(siteURL string, pages []*model.File) (*model.File, error) {
	siteURL = strings.TrimSuffix(siteURL, "/")
	set := urlset{XMLNS: namespace}
	for _, page := range pages {
		if page.Pub != nil {
			set.URLs = append(set.URLs, entry{Loc: siteURL + page.Pub.URL})
		}
	}
	slices.SortFunc(set.URLs, func(a, b entry) int { return strings.Compare(a.Loc, b.Loc) })

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, derrors.InternalError("failed to render sitemap", err)
	}
	return sitefile.New(FileName, append([]byte(xml.Header), append(data, '\n')...), model.MediaTypeXML)
}
