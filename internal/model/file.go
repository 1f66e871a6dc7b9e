// Package model defines the virtual file records that flow through the
// generator pipeline, from aggregated source files to published site files.
package model

import (
	"maps"
	"path"
	"slices"
	"strings"
)

// Media types recognised by the pipeline.
const (
	MediaTypeHTML     = "text/html"
	MediaTypeMarkdown = "text/markdown"
	MediaTypeAsciiDoc = "text/asciidoc"
	MediaTypeXML      = "application/xml"
	MediaTypeText     = "text/plain"
)

// Family classifies a content file within a component version.
type Family string

const (
	FamilyPage       Family = "page"
	FamilyPartial    Family = "partial"
	FamilyExample    Family = "example"
	FamilyImage      Family = "image"
	FamilyAttachment Family = "attachment"
	FamilyNav        Family = "nav"
)

// Origin records where an aggregated file came from.
type Origin struct {
	URL       string // source url or local path as written in the playbook
	Ref       string // branch or tag name; empty for worktree reads
	RefType   string // "branch", "tag" or "worktree"
	StartPath string
}

// Src identifies a file within the content model.
type Src struct {
	Component string
	Version   string
	Module    string
	Family    Family
	Relative  string
	Basename  string
	Stem      string
	Extname   string
	Origin    *Origin
}

// Out describes where a file is written relative to the output root.
type Out struct {
	Path     string
	Dirname  string
	Basename string
	RootPath string
}

// Pub describes how a published file is addressed on the site.
type Pub struct {
	URL            string
	RootPath       string
	ModuleRootPath string
}

// File is a virtual file. Source files carry Src only; publishable files
// also carry Out and Pub.
type File struct {
	Path      string
	Contents  []byte
	MediaType string

	Src Src
	Out *Out
	Pub *Pub

	Title       string
	Layout      string
	Attributes  map[string]string
	Aliases     []string
	Fingerprint string
}

// Publishable reports whether the file has an output location.
func (f *File) Publishable() bool { return f.Out != nil && f.Out.Path != "" }

// Clone returns a deep copy of f.
func (f *File) Clone() *File {
	c := *f
	c.Contents = slices.Clone(f.Contents)
	if f.Src.Origin != nil {
		o := *f.Src.Origin
		c.Src.Origin = &o
	}
	if f.Out != nil {
		o := *f.Out
		c.Out = &o
	}
	if f.Pub != nil {
		p := *f.Pub
		c.Pub = &p
	}
	c.Attributes = maps.Clone(f.Attributes)
	c.Aliases = slices.Clone(f.Aliases)
	return &c
}

// NewOut derives an Out record from a posix output path.
func NewOut(outPath string) *Out {
	dir := path.Dir(outPath)
	if dir == "." {
		dir = ""
	}
	return &Out{
		Path:     outPath,
		Dirname:  dir,
		Basename: path.Base(outPath),
		RootPath: RootPath(dir),
	}
}

// RootPath returns the relative path from dir back to the site root.
func RootPath(dir string) string {
	if dir == "" || dir == "." {
		return "."
	}
	n := strings.Count(strings.Trim(dir, "/"), "/") + 1
	return strings.TrimSuffix(strings.Repeat("../", n), "/")
}
