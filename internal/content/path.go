package content

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShortPagePath is returned when a page path lacks the segments needed to
// derive a module and a relative path.
var ErrShortPagePath = errors.New("page path has too few segments")

// pagePathMinSegments is modules/<module>/<family dir>/<relative...>.
const pagePathMinSegments = 4

// ParsePagePath decomposes a component-relative page path such as
// "modules/admin/pages/setup/index.html". The first segment is discarded, the
// second is the module, the third (the family directory) is discarded, and
// the remaining segments joined with "/" are the relative path.
func ParsePagePath(p string) (module, relative string, err error) {
	segments := strings.Split(p, "/")
	if len(segments) < pagePathMinSegments {
		return "", "", fmt.Errorf("%w: %q has %d, need at least %d", ErrShortPagePath, p, len(segments), pagePathMinSegments)
	}
	module = segments[1]
	relative = strings.Join(segments[3:], "/")
	if module == "" || relative == "" || strings.HasSuffix(relative, "/") {
		return "", "", fmt.Errorf("%w: %q has an empty module or relative segment", ErrShortPagePath, p)
	}
	return module, relative, nil
}
