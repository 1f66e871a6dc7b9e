package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/content"
)

// DescriptorFile is the component descriptor expected at each start path.
const DescriptorFile = "docsite.yml"

// ErrMissingDescriptor is returned when a start path has no descriptor.
var ErrMissingDescriptor = errors.New("component descriptor not found")

// Descriptor declares the component version a start path contributes to.
type Descriptor struct {
	Name           string   `yaml:"name"`
	Version        string   `yaml:"version"`
	Title          string   `yaml:"title"`
	DisplayVersion string   `yaml:"display_version"`
	Prerelease     bool     `yaml:"prerelease"`
	StartPage      string   `yaml:"start_page"`
	Nav            []string `yaml:"nav"`
}

var titleCaser = cases.Title(language.English)

// ParseDescriptor decodes and normalizes a component descriptor. An empty
// version denotes an unversioned component.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", DescriptorFile, err)
	}
	d.Name = strings.TrimSpace(d.Name)
	d.Version = strings.TrimSpace(d.Version)
	if d.Name == "" {
		return nil, fmt.Errorf("%s: name is required", DescriptorFile)
	}
	if strings.ContainsAny(d.Name, "/ @:") {
		return nil, fmt.Errorf("%s: invalid component name %q", DescriptorFile, d.Name)
	}
	if strings.ContainsAny(d.Version, "/@:") {
		return nil, fmt.Errorf("%s: invalid version %q", DescriptorFile, d.Version)
	}
	if d.Version == "" || d.Version == "~" {
		d.Version = content.UnversionedVersion
	}
	if d.Title == "" {
		d.Title = titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(d.Name))
	}
	if d.DisplayVersion == "" && d.Version == content.UnversionedVersion {
		d.DisplayVersion = "default"
	}
	return &d, nil
}
