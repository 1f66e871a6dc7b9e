// Package classify sorts aggregated files into the content catalog by
// module and family.
package classify

import (
	"log/slog"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markup"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/playbook"
)

// familyDirs maps the family directory inside a module to its family.
var familyDirs = map[string]model.Family{
	"pages":       model.FamilyPage,
	"partials":    model.FamilyPartial,
	"examples":    model.FamilyExample,
	"images":      model.FamilyImage,
	"attachments": model.FamilyAttachment,
}

// pageMediaTypes are the page sources the converter renders. Pre-rendered
// HTML is inserted by the generator itself.
var pageMediaTypes = []string{model.MediaTypeMarkdown}

// Classify is the default classification collaborator. It builds a new
// catalog from agg; agg is not modified.
func Classify(pb *playbook.Playbook, agg model.Aggregate, _ *markup.Config) (*content.Catalog, error) {
	catalog := content.New(content.ExtensionStyle(pb.URLs.HTMLExtensionStyle))
	skipped := 0
	for _, cv := range agg {
		if _, err := catalog.RegisterComponentVersion(cv); err != nil {
			return nil, derrors.Wrap(err, derrors.CategoryAggregation, derrors.SeverityFatal, "component version registered twice").
				WithContext("component", cv.Name).WithContext("version", cv.Version)
		}
		for _, f := range cv.Files {
			src, ok := Locate(f, cv.Nav)
			if !ok {
				skipped++
				continue
			}
			c := f.Clone()
			c.Src.Module = src.Module
			c.Src.Family = src.Family
			c.Src.Relative = src.Relative
			c.Src.Component = cv.Name
			c.Src.Version = cv.Version
			if err := catalog.AddFile(c); err != nil {
				return nil, derrors.Wrap(err, derrors.CategoryAggregation, derrors.SeverityFatal, "content file could not be classified").
					WithContext("path", f.Path).WithContext("component", cv.Name).WithContext("version", cv.Version)
			}
		}
	}
	slog.Debug("Classified content", logfields.Count(catalog.Len()), slog.Int("skipped", skipped))
	return catalog, nil
}

// Locate derives the module, family, and relative path of an aggregated file
// from its path. Files outside the family directories, and pre-rendered HTML
// pages, are not located.
func Locate(f *model.File, nav []string) (model.Src, bool) {
	segments := strings.Split(f.Path, "/")
	if len(segments) < 3 || segments[0] != "modules" || segments[1] == "" {
		return model.Src{}, false
	}
	module := segments[1]
	if slices.Contains(nav, f.Path) {
		return model.Src{Module: module, Family: model.FamilyNav, Relative: strings.Join(segments[2:], "/")}, true
	}
	if len(segments) < 4 {
		return model.Src{}, false
	}
	family, ok := familyDirs[segments[2]]
	if !ok {
		return model.Src{}, false
	}
	if family == model.FamilyPage && !slices.Contains(pageMediaTypes, f.MediaType) {
		return model.Src{}, false
	}
	return model.Src{Module: module, Family: family, Relative: strings.Join(segments[3:], "/")}, true
}
