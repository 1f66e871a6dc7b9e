// Package content holds the content catalog: the registry of classified
// source files for a single generator run.
//
// A Catalog is owned by the pipeline goroutine that created it. Stages receive
// it explicitly and may mutate it; it is never shared between goroutines.
package content

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/model"
)

// ErrDuplicateFile is returned when a file with the same key is added twice.
var ErrDuplicateFile = errors.New("duplicate file in content catalog")

// ErrIncompleteSrc is returned when a file lacks the fields needed for its key.
var ErrIncompleteSrc = errors.New("file source identity is incomplete")

// Key identifies a file in the catalog.
type Key struct {
	Component string
	Version   string
	Module    string
	Family    model.Family
	Relative  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s:%s:%s$%s", k.Version, k.Component, k.Module, k.Family, k.Relative)
}

// KeyOf returns the catalog key of f.
func KeyOf(f *model.File) Key {
	return Key{
		Component: f.Src.Component,
		Version:   f.Src.Version,
		Module:    f.Src.Module,
		Family:    f.Src.Family,
		Relative:  f.Src.Relative,
	}
}

// Catalog is the content registry for one run.
type Catalog struct {
	style      ExtensionStyle
	files      map[Key]*model.File
	order      []Key
	components map[string]*Component
	compOrder  []string
}

// New creates an empty catalog publishing pages with the given URL style.
func New(style ExtensionStyle) *Catalog {
	if style == "" {
		style = ExtensionStyleDefault
	}
	return &Catalog{
		style:      style,
		files:      make(map[Key]*model.File),
		components: make(map[string]*Component),
	}
}

// ExtensionStyle returns the URL extension style pages are published with.
func (c *Catalog) ExtensionStyle() ExtensionStyle { return c.style }

// AddFile registers f. Source names are derived from Src.Relative, and
// publishable families get Out and Pub when the caller has not set them.
func (c *Catalog) AddFile(f *model.File) error {
	key := KeyOf(f)
	if key.Component == "" || key.Version == "" || key.Module == "" || key.Family == "" || key.Relative == "" {
		return fmt.Errorf("%w: %s (%s)", ErrIncompleteSrc, key, f.Path)
	}
	if existing, ok := c.files[key]; ok {
		return fmt.Errorf("%w: %s (%s and %s)", ErrDuplicateFile, key, existing.Path, f.Path)
	}
	base := path.Base(f.Src.Relative)
	f.Src.Basename = base
	f.Src.Extname = path.Ext(base)
	f.Src.Stem = strings.TrimSuffix(base, f.Src.Extname)
	if f.Out == nil {
		f.Out, f.Pub = c.publication(f.Src)
	}
	c.files[key] = f
	c.order = append(c.order, key)
	return nil
}

// RemoveFile drops the file with the given key and reports whether it existed.
func (c *Catalog) RemoveFile(key Key) bool {
	if _, ok := c.files[key]; !ok {
		return false
	}
	delete(c.files, key)
	c.order = slices.DeleteFunc(c.order, func(k Key) bool { return k == key })
	return true
}

// Find returns the file with the given key, or nil.
func (c *Catalog) Find(key Key) *model.File {
	return c.files[key]
}

// Files returns every file in insertion order.
func (c *Catalog) Files() []*model.File {
	out := make([]*model.File, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.files[k])
	}
	return out
}

// Len reports the number of files in the catalog.
func (c *Catalog) Len() int { return len(c.order) }

// FilesByFamily returns files of the given family in insertion order.
func (c *Catalog) FilesByFamily(family model.Family) []*model.File {
	var out []*model.File
	for _, k := range c.order {
		if k.Family == family {
			out = append(out, c.files[k])
		}
	}
	return out
}

// Pages returns pages accepted by filter (all pages when filter is nil).
func (c *Catalog) Pages(filter func(*model.File) bool) []*model.File {
	var out []*model.File
	for _, f := range c.FilesByFamily(model.FamilyPage) {
		if filter == nil || filter(f) {
			out = append(out, f)
		}
	}
	return out
}

// AllFiles returns the publishable files that are not pages. Pages reach the
// publisher through the site catalog once composed.
func (c *Catalog) AllFiles() []*model.File {
	var out []*model.File
	for _, k := range c.order {
		f := c.files[k]
		if k.Family != model.FamilyPage && f.Publishable() {
			out = append(out, f)
		}
	}
	return out
}
