package compose

import "html/template"

// Model is the data handed to layouts.
type Model struct {
	Site Site
	Page Page
	Env  map[string]string
	// SiteRootPath and UIRootPath are relative to the page, or absolute for
	// pages without a root path such as the 404 page. Neither has a
	// trailing slash.
	SiteRootPath string
	UIRootPath   string
}

// Site describes the whole site.
type Site struct {
	Title      string
	URL        string
	Keys       map[string]string
	Components []*Component
}

// Component is a component as seen from the page being composed.
type Component struct {
	Name     string
	Title    string
	URL      string
	Versions []*Version
}

// Version is a component version as seen from the page being composed.
type Version struct {
	Version        string
	DisplayVersion string
	Prerelease     bool
	URL            string
}

// Page describes the page being composed.
type Page struct {
	Title        string
	Description  string
	Contents     template.HTML
	URL          string
	CanonicalURL string
	Layout       string
	Module       string
	Attributes   map[string]string
	Component    *Component
	Version      *Version
	Navigation   []*NavItem
	Versions     []*PageVersion
}

// NavItem is a navigation entry with a URL relative to the page.
type NavItem struct {
	Content string
	URL     string
	Active  bool
	Items   []*NavItem
}

// PageVersion links to the same page in another version of its component.
// Missing is set when that version lacks the page; URL then points at the
// version's start page.
type PageVersion struct {
	Version        string
	DisplayVersion string
	URL            string
	Current        bool
	Missing        bool
}
