// Package markup resolves the document conversion settings shared by the
// classifier, the converter, and the navigation builder.
package markup

import (
	"maps"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/playbook"
)

// Known goldmark extensions that can be switched on from the playbook.
const (
	ExtFootnote       = "footnote"
	ExtDefinitionList = "definition-list"
	ExtTable          = "table"
	ExtStrikethrough  = "strikethrough"
	ExtTaskList       = "task-list"
	ExtLinkify        = "linkify"
	ExtTypographer    = "typographer"
)

// DefaultExtensions are enabled regardless of playbook settings.
var DefaultExtensions = []string{ExtTable, ExtStrikethrough, ExtTaskList, ExtLinkify, ExtTypographer}

// Config is the resolved conversion configuration for a run.
type Config struct {
	// Attributes are document attributes available to every page, before
	// page-level attributes are applied.
	Attributes map[string]string
	Extensions []string
	HardWraps  bool
	Unsafe     bool
}

// Resolve derives the conversion configuration from the playbook. It is a
// pure function of pb.
func Resolve(pb *playbook.Playbook) *Config {
	attrs := map[string]string{
		"site-gen": "docsite",
		"env":      "site",
	}
	if pb.Site.Title != "" {
		attrs["site-title"] = pb.Site.Title
	}
	if pb.Site.URL != "" {
		attrs["site-url"] = pb.Site.URL
	}
	for k, v := range pb.Site.Keys {
		attrs["site-key-"+k] = v
	}
	maps.Copy(attrs, pb.Markup.Attributes)

	exts := slices.Clone(DefaultExtensions)
	for _, e := range pb.Markup.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !slices.Contains(exts, e) {
			exts = append(exts, e)
		}
	}
	slices.Sort(exts)

	return &Config{
		Attributes: attrs,
		Extensions: exts,
		HardWraps:  pb.Markup.HardWraps,
		Unsafe:     pb.Markup.Unsafe,
	}
}

// Has reports whether the named extension is enabled.
func (c *Config) Has(ext string) bool {
	return c != nil && slices.Contains(c.Extensions, ext)
}
