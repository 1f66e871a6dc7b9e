package compose

import (
	"html/template"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/navigation"
)

// linker turns site-root-relative URLs into URLs usable from one page.
type linker struct {
	from     string
	absolute bool
	sitePath string
}

func (l linker) link(target string) string {
	if target == "" || target == "#" || !strings.HasPrefix(target, "/") {
		return target
	}
	if l.absolute {
		return l.sitePath + target
	}
	return content.RelativeURL(l.from, target)
}

func (c *composer) model(page *model.File, catalog *content.Catalog, nav *navigation.Catalog) *Model {
	l := linker{sitePath: c.sitePath}
	pageURL := ""
	if page.Pub != nil {
		pageURL = page.Pub.URL
	}
	m := &Model{Env: c.env}
	if page.Pub == nil || page.Pub.RootPath == "" {
		l.absolute = true
		m.SiteRootPath = c.sitePath
	} else {
		l.from = pageURL
		m.SiteRootPath = page.Pub.RootPath
	}
	m.UIRootPath = m.SiteRootPath + "/" + c.uiOutputDir

	m.Site = Site{Title: c.pb.Site.Title, URL: c.pb.Site.URL, Keys: c.pb.Site.Keys}
	for _, comp := range catalog.Components() {
		m.Site.Components = append(m.Site.Components, c.componentModel(catalog, comp, l))
	}

	m.Page = Page{
		Title:      page.Title,
		Contents:   template.HTML(page.Contents), //nolint:gosec // page contents are rendered HTML
		URL:        pageURL,
		Layout:     page.Layout,
		Module:     page.Src.Module,
		Attributes: page.Attributes,
	}
	if page.Attributes != nil {
		m.Page.Description = page.Attributes["description"]
	}
	if c.pb.Site.URL != "" && pageURL != "" {
		m.Page.CanonicalURL = c.pb.Site.URL + pageURL
	}

	for _, comp := range m.Site.Components {
		if comp.Name != page.Src.Component {
			continue
		}
		m.Page.Component = comp
		for _, v := range comp.Versions {
			if v.Version == page.Src.Version {
				m.Page.Version = v
			}
		}
	}
	if m.Page.Component == nil {
		return m
	}

	for _, menu := range nav.Menus(page.Src.Component, page.Src.Version) {
		m.Page.Navigation = append(m.Page.Navigation, navItem(menu, pageURL, l))
	}
	m.Page.Versions = pageVersions(catalog, page, l)
	return m
}

func (c *composer) componentModel(catalog *content.Catalog, comp *content.Component, l linker) *Component {
	cm := &Component{Name: comp.Name, Title: comp.Title}
	for _, cv := range comp.Versions {
		vm := &Version{Version: cv.Version, DisplayVersion: cv.DisplayVersion, Prerelease: cv.Prerelease}
		if start := catalog.StartPage(cv); start != nil && start.Pub != nil {
			vm.URL = l.link(start.Pub.URL)
		}
		cm.Versions = append(cm.Versions, vm)
	}
	if latest := comp.Latest(); latest != nil {
		for _, vm := range cm.Versions {
			if vm.Version == latest.Version {
				cm.URL = vm.URL
			}
		}
	}
	return cm
}

func navItem(item *navigation.Item, pageURL string, l linker) *NavItem {
	n := &NavItem{Content: item.Content, URL: l.link(item.URL)}
	if item.URLType == navigation.URLTypeInternal && pageURL != "" {
		target := item.URL
		if i := strings.IndexByte(target, '#'); i >= 0 {
			target = target[:i]
		}
		n.Active = target == pageURL
	}
	for _, child := range item.Items {
		n.Items = append(n.Items, navItem(child, pageURL, l))
	}
	return n
}

func pageVersions(catalog *content.Catalog, page *model.File, l linker) []*PageVersion {
	comp := catalog.Component(page.Src.Component)
	if comp == nil || len(comp.Versions) < 2 {
		return nil
	}
	var out []*PageVersion
	for _, cv := range comp.Versions {
		pv := &PageVersion{Version: cv.Version, DisplayVersion: cv.DisplayVersion, Current: cv.Version == page.Src.Version}
		key := content.KeyOf(page)
		key.Version = cv.Version
		target := catalog.Find(key)
		if target == nil {
			pv.Missing = true
			target = catalog.StartPage(cv)
		}
		if target != nil && target.Pub != nil {
			pv.URL = l.link(target.Pub.URL)
		}
		out = append(out, pv)
	}
	return out
}
