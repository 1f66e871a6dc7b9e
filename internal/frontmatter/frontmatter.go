// Package frontmatter splits and decodes the YAML header of markdown pages.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Meta is the page metadata a front matter block may declare.
type Meta struct {
	Title       string            `yaml:"title"`
	NavTitle    string            `yaml:"navtitle"`
	Description string            `yaml:"description"`
	Layout      string            `yaml:"layout"`
	Aliases     []string          `yaml:"aliases"`
	Attributes  map[string]string `yaml:"attributes"`
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without a newline still counts.
		if bytes.HasSuffix(content[start:], []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes the front matter into Meta.
func Parse(content []byte) (Meta, []byte, error) {
	fm, body, _, err := Split(content)
	if err != nil {
		return Meta{}, nil, err
	}
	meta, err := Decode(fm)
	if err != nil {
		return Meta{}, nil, err
	}
	return meta, body, nil
}

// Decode decodes a raw front matter block. An empty block yields zero Meta.
func Decode(fm []byte) (Meta, error) {
	var meta Meta
	if len(bytes.TrimSpace(fm)) == 0 {
		return meta, nil
	}
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return Meta{}, fmt.Errorf("front matter: %w", err)
	}
	return meta, nil
}

// Fingerprint hashes a page's front matter and body with mdfp. Aliases do
// not contribute, so adding a redirect does not change a page's identity.
func Fingerprint(fm, body []byte) string {
	var kept []string
	skip := false
	for _, line := range strings.Split(strings.ReplaceAll(string(fm), "\r\n", "\n"), "\n") {
		if skip && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "-")) {
			continue
		}
		skip = strings.HasPrefix(line, "aliases:") || strings.HasPrefix(line, mdfp.FingerprintField+":")
		if skip || line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return mdfp.CalculateFingerprintFromParts(strings.Join(kept, "\n"), string(body))
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
