// Package sitefile builds synthetic site files: publishable files that have no
// source in the content catalog, such as the 404 page.
package sitefile

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/model"
)

// ErrInvalidPath is returned for an empty or absolute output path.
var ErrInvalidPath = errors.New("invalid site file path")

// Option customises a site file after its defaults are applied.
type Option func(*model.File)

// WithTitle sets the file title.
func WithTitle(title string) Option {
	return func(f *model.File) { f.Title = title }
}

// WithLayout selects the UI layout used when the file is composed.
func WithLayout(layout string) Option {
	return func(f *model.File) { f.Layout = layout }
}

// WithAttributes merges attributes into the file.
func WithAttributes(attrs map[string]string) Option {
	return func(f *model.File) {
		if f.Attributes == nil {
			f.Attributes = make(map[string]string, len(attrs))
		}
		maps.Copy(f.Attributes, attrs)
	}
}

// WithSrc replaces the source identity. An empty stem is derived from the path.
func WithSrc(src model.Src) Option {
	return func(f *model.File) {
		if src.Stem == "" {
			src.Stem = f.Src.Stem
		}
		f.Src = src
	}
}

// New creates a publishable file at p (posix, relative to the site root).
// Pub.URL is the site-root-relative URL "/"+p and Pub.RootPath is empty.
//
// The stem is p with the extension of its last segment removed; a last
// segment without a dot, or whose only dot is leading (".nojekyll"), keeps
// the whole path as stem. Paths leaving the site root are rejected.
func New[T ~string | ~[]byte](p string, contents T, mediaType string, opts ...Option) (*model.File, error) {
	if p == "" || strings.HasPrefix(p, "/") || escapesRoot(p) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	base := path.Base(p)
	f := &model.File{
		Path:      p,
		Contents:  slices.Clone([]byte(contents)),
		MediaType: mediaType,
		Out:       model.NewOut(p),
		Pub:       &model.Pub{URL: "/" + p, RootPath: ""},
		Src: model.Src{
			Basename: base,
			Stem:     stem(p),
			Extname:  path.Ext(base),
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func stem(p string) string {
	slash := strings.LastIndexByte(p, '/')
	dot := strings.LastIndexByte(p, '.')
	if dot <= slash+1 {
		return p
	}
	return p[:dot]
}

func escapesRoot(p string) bool {
	c := path.Clean(p)
	return c == ".." || strings.HasPrefix(c, "../")
}

// NotFoundTitle is the title of the generated 404 page.
const NotFoundTitle = "Page Not Found"

// NotFoundPage returns the identity of the site's 404 page. Its markup is
// supplied later by the page composer from the UI's 404 layout.
func NotFoundPage() *model.File {
	f, err := New("404.html", "", model.MediaTypeHTML, WithTitle(NotFoundTitle), WithLayout("404"))
	if err != nil {
		panic(err) // constant arguments
	}
	return f
}
