package content

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/model"
)

// ExtensionStyle controls how page URLs are formed.
type ExtensionStyle string

const (
	// ExtensionStyleDefault publishes foo.html at /foo.html.
	ExtensionStyleDefault ExtensionStyle = "default"
	// ExtensionStyleDrop publishes foo.html at /foo.
	ExtensionStyleDrop ExtensionStyle = "drop"
	// ExtensionStyleIndexify publishes foo/index.html at /foo/.
	ExtensionStyleIndexify ExtensionStyle = "indexify"
)

// Reserved segment names.
const (
	RootModule         = "ROOT"
	RootComponent      = "ROOT"
	UnversionedVersion = "~"
)

// Publication computes the output location and URL a file with src would
// have in this catalog, whether or not such a file exists. It returns nils
// for families that are never published.
func (c *Catalog) Publication(src model.Src) (*model.Out, *model.Pub) {
	return c.publication(src)
}

func (c *Catalog) publication(src model.Src) (*model.Out, *model.Pub) {
	moduleRoot := moduleRootDir(src)
	var outPath, url string
	switch src.Family {
	case model.FamilyPage:
		stemPath := strings.TrimSuffix(src.Relative, path.Ext(src.Relative))
		isIndex := path.Base(stemPath) == "index"
		switch c.style {
		case ExtensionStyleIndexify:
			if isIndex {
				outPath = path.Join(moduleRoot, stemPath+".html")
				url = dirURL(moduleRoot, path.Dir(stemPath))
			} else {
				outPath = path.Join(moduleRoot, stemPath, "index.html")
				url = dirURL(moduleRoot, stemPath)
			}
		case ExtensionStyleDrop:
			outPath = path.Join(moduleRoot, stemPath+".html")
			if isIndex {
				url = dirURL(moduleRoot, path.Dir(stemPath))
			} else {
				url = "/" + path.Join(moduleRoot, stemPath)
			}
		default:
			outPath = path.Join(moduleRoot, stemPath+".html")
			url = "/" + outPath
		}
	case model.FamilyImage:
		outPath = path.Join(moduleRoot, "_images", src.Relative)
		url = "/" + outPath
	case model.FamilyAttachment:
		outPath = path.Join(moduleRoot, "_attachments", src.Relative)
		url = "/" + outPath
	default:
		return nil, nil
	}
	out := model.NewOut(outPath)
	return out, &model.Pub{
		URL:            url,
		RootPath:       out.RootPath,
		ModuleRootPath: relativePath(out.Dirname, moduleRoot),
	}
}

func moduleRootDir(src model.Src) string {
	var segments []string
	if src.Component != RootComponent {
		segments = append(segments, src.Component)
	}
	if src.Version != UnversionedVersion {
		segments = append(segments, src.Version)
	}
	if src.Module != RootModule {
		segments = append(segments, src.Module)
	}
	return path.Join(segments...)
}

func dirURL(parts ...string) string {
	p := path.Join(parts...)
	if p == "." || p == "" {
		return "/"
	}
	return "/" + p + "/"
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}

// relativePath returns the posix path from directory fromDir to target.
func relativePath(fromDir, target string) string {
	from, to := splitPath(fromDir), splitPath(target)
	i := 0
	for i < len(from) && i < len(to) && from[i] == to[i] {
		i++
	}
	parts := make([]string, 0, len(from)-i+len(to)-i)
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// RelativeURL returns the URL of to relative to the page published at from.
// Both arguments are site-root-relative URLs starting with "/".
func RelativeURL(from, to string) string {
	fragment := ""
	if i := strings.IndexByte(to, '#'); i >= 0 {
		to, fragment = to[:i], to[i:]
	}
	fromDir := from[:strings.LastIndexByte(from, '/')+1]
	rel := relativePath(fromDir, to)
	switch {
	case rel == "." && strings.HasSuffix(to, "/"):
		rel = "./"
	case rel == ".":
		rel = path.Base(to)
	case strings.HasSuffix(to, "/"):
		rel += "/"
	}
	return rel + fragment
}
