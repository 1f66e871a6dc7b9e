package convert

import (
	"regexp"
	"strings"
)

var attrRef = regexp.MustCompile(`\\?\{([A-Za-z0-9_][A-Za-z0-9_-]*)\}`)

// SubstituteAttributes replaces {name} references with attribute values
// outside fenced code blocks. Unknown references are left as written and
// \{name} escapes a reference.
func SubstituteAttributes(body []byte, attrs map[string]string) []byte {
	if len(attrs) == 0 || !strings.Contains(string(body), "{") {
		return body
	}
	lines := strings.SplitAfter(string(body), "\n")
	fence := ""
	var b strings.Builder
	b.Grow(len(body))
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if fence == "" && (strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")) {
			fence = trimmed[:3]
			b.WriteString(line)
			continue
		}
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			b.WriteString(line)
			continue
		}
		b.WriteString(attrRef.ReplaceAllStringFunc(line, func(m string) string {
			if strings.HasPrefix(m, `\`) {
				return m[1:]
			}
			if v, ok := attrs[m[1:len(m)-1]]; ok {
				return v
			}
			return m
		}))
	}
	return []byte(b.String())
}
