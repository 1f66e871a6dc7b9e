package model

import (
	"mime"
	"path"
	"strings"
)

var extMediaTypes = map[string]string{
	".md":       MediaTypeMarkdown,
	".markdown": MediaTypeMarkdown,
	".adoc":     MediaTypeAsciiDoc,
	".html":     MediaTypeHTML,
	".htm":      MediaTypeHTML,
	".xml":      MediaTypeXML,
	".txt":      MediaTypeText,
	".yml":      "application/yaml",
	".yaml":     "application/yaml",
}

// MediaTypeFor guesses the media type of a file from its extension, without
// parameters. Unknown extensions yield application/octet-stream.
func MediaTypeFor(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if mt, ok := extMediaTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		return strings.TrimSpace(mt)
	}
	return "application/octet-stream"
}
