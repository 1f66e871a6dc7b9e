package content

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/model"
)

// ErrDuplicateComponentVersion is returned when a component version is registered twice.
var ErrDuplicateComponentVersion = errors.New("duplicate component version")

// ComponentVersion is the catalog's view of one version of a component.
type ComponentVersion struct {
	Component      string
	Version        string
	Title          string
	DisplayVersion string
	Prerelease     bool
	StartPage      string
	Nav            []string
}

// Component groups the registered versions of one component, newest first.
type Component struct {
	Name     string
	Title    string
	Versions []*ComponentVersion
}

// Latest returns the newest non-prerelease version, or the newest version if
// every version is a prerelease.
func (c *Component) Latest() *ComponentVersion {
	for _, v := range c.Versions {
		if !v.Prerelease {
			return v
		}
	}
	if len(c.Versions) > 0 {
		return c.Versions[0]
	}
	return nil
}

// RegisterComponentVersion records an aggregated component version.
func (c *Catalog) RegisterComponentVersion(cv *model.ComponentVersion) (*ComponentVersion, error) {
	comp, ok := c.components[cv.Name]
	if !ok {
		comp = &Component{Name: cv.Name, Title: cv.Title}
		c.components[cv.Name] = comp
		c.compOrder = append(c.compOrder, cv.Name)
	}
	for _, v := range comp.Versions {
		if v.Version == cv.Version {
			return nil, fmt.Errorf("%w: %s@%s", ErrDuplicateComponentVersion, cv.Version, cv.Name)
		}
	}
	display := cv.DisplayVersion
	if display == "" {
		display = cv.Version
	}
	v := &ComponentVersion{
		Component:      cv.Name,
		Version:        cv.Version,
		Title:          cv.Title,
		DisplayVersion: display,
		Prerelease:     cv.Prerelease,
		StartPage:      cv.StartPage,
		Nav:            slices.Clone(cv.Nav),
	}
	comp.Versions = append(comp.Versions, v)
	slices.SortStableFunc(comp.Versions, func(a, b *ComponentVersion) int {
		return CompareVersions(b.Version, a.Version)
	})
	if latest := comp.Latest(); latest != nil && latest.Title != "" {
		comp.Title = latest.Title
	}
	return v, nil
}

// Components returns the registered components sorted by name.
func (c *Catalog) Components() []*Component {
	out := make([]*Component, 0, len(c.components))
	for _, name := range c.compOrder {
		out = append(out, c.components[name])
	}
	slices.SortFunc(out, func(a, b *Component) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Component returns the named component, or nil.
func (c *Catalog) Component(name string) *Component {
	return c.components[name]
}

// ComponentVersion returns the given version of a component, or nil.
func (c *Catalog) ComponentVersion(name, version string) *ComponentVersion {
	comp := c.components[name]
	if comp == nil {
		return nil
	}
	for _, v := range comp.Versions {
		if v.Version == version {
			return v
		}
	}
	return nil
}

// StartPage resolves the start page of a component version. Without an
// explicit start page, index.md and then index.html in the ROOT module are tried.
func (c *Catalog) StartPage(cv *ComponentVersion) *model.File {
	ctx := model.Src{Component: cv.Component, Version: cv.Version, Module: RootModule}
	if cv.StartPage != "" {
		return c.ResolvePage(cv.StartPage, ctx)
	}
	for _, rel := range []string{"index.md", "index.html"} {
		if p := c.ResolvePage(rel, ctx); p != nil {
			return p
		}
	}
	return nil
}

// ResolvePage resolves a page reference of the form
// "[version@][[component:]module:]relative" against ctx. A reference to
// another component without a version targets that component's latest version.
func (c *Catalog) ResolvePage(ref string, ctx model.Src) *model.File {
	key, ok := c.parsePageRef(ref, ctx)
	if !ok {
		return nil
	}
	return c.files[key]
}

// PageKey returns the key a page reference names, whether or not the page
// exists.
func (c *Catalog) PageKey(ref string, ctx model.Src) (Key, bool) {
	return c.parsePageRef(ref, ctx)
}

func (c *Catalog) parsePageRef(ref string, ctx model.Src) (Key, bool) {
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		ref = ref[:i]
	}
	version := ""
	if at := strings.IndexByte(ref, '@'); at >= 0 {
		version, ref = ref[:at], ref[at+1:]
	}
	component, module, relative := ctx.Component, "", ref
	parts := strings.Split(ref, ":")
	switch len(parts) {
	case 1:
	case 2:
		module, relative = parts[0], parts[1]
	case 3:
		component, module, relative = parts[0], parts[1], parts[2]
		if component == "" {
			component = ctx.Component
		}
	default:
		return Key{}, false
	}
	if module == "" {
		module = ctx.Module
		if component != ctx.Component || module == "" {
			module = RootModule
		}
	}
	if version == "" {
		if component == ctx.Component {
			version = ctx.Version
		} else if comp := c.components[component]; comp != nil {
			if latest := comp.Latest(); latest != nil {
				version = latest.Version
			}
		}
	}
	if relative == "" || version == "" {
		return Key{}, false
	}
	relative = path.Clean(relative)
	if relative == "." || relative == ".." || strings.HasPrefix(relative, "../") || strings.HasPrefix(relative, "/") {
		return Key{}, false
	}
	return Key{Component: component, Version: version, Module: module, Family: model.FamilyPage, Relative: relative}, true
}

// CompareVersions orders version strings, comparing dot or dash separated
// numeric segments numerically and everything else lexically.
func CompareVersions(a, b string) int {
	split := func(s string) []string {
		return strings.FieldsFunc(strings.TrimPrefix(s, "v"), func(r rune) bool { return r == '.' || r == '-' })
	}
	as, bs := split(a), split(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		switch {
		case aerr == nil && berr == nil:
			if an != bn {
				return an - bn
			}
		case aerr == nil:
			return 1
		case berr == nil:
			return -1
		default:
			if cmp := strings.Compare(as[i], bs[i]); cmp != 0 {
				return cmp
			}
		}
	}
	return len(as) - len(bs)
}
