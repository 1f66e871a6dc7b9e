package playbook

import (
	"io"
	"path/filepath"

	"github.com/alecthomas/kong"
)

// Flags are the generator flags accepted by Build. Boolean flags can only
// switch a setting on.
type Flags struct {
	Playbook string `arg:"" name:"playbook" help:"Path to the playbook file"`

	ToDir                 string            `name:"to-dir" help:"Output directory (replaces output.dir)"`
	URL                   string            `name:"url" help:"Absolute site URL"`
	Title                 string            `name:"title" help:"Site title"`
	CacheDir              string            `name:"cache-dir" help:"Directory for cached git repositories and UI bundles"`
	Fetch                 bool              `name:"fetch" help:"Fetch updates for cached sources and remote UI bundles"`
	Clean                 bool              `name:"clean" help:"Remove the output directory before publishing"`
	Attributes            map[string]string `name:"attribute" short:"a" help:"Document attribute (k=v); repeatable" mapsep:"none"`
	Keys                  map[string]string `name:"key" help:"Site key (k=v); repeatable" mapsep:"none"`
	RedirectFacility      string            `name:"redirect-facility" help:"Redirect facility"`
	HTMLURLExtensionStyle string            `name:"html-url-extension-style" help:"Page URL extension style"`
	UIBundleURL           string            `name:"ui-bundle-url" help:"UI bundle directory, zip file, or URL"`
	LogLevel              string            `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat             string            `name:"log-format" help:"Log format (text, json)"`
}

// ParseFlags parses generator arguments without touching the process.
func ParseFlags(args []string) (*Flags, error) {
	var flags Flags
	parser, err := kong.New(&flags,
		kong.Name("docsite generate"),
		kong.Writers(io.Discard, io.Discard),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}
	return &flags, nil
}

func (f *Flags) apply(pb *Playbook) {
	if f.ToDir != "" {
		pb.Output.Dir = absPath(f.ToDir)
		pb.Output.Destinations = nil
	}
	if f.URL != "" {
		pb.Site.URL = f.URL
	}
	if f.Title != "" {
		pb.Site.Title = f.Title
	}
	if f.CacheDir != "" {
		pb.Runtime.CacheDir = absPath(f.CacheDir)
	}
	if f.Fetch {
		pb.Runtime.Fetch = true
	}
	if f.Clean {
		pb.Output.Clean = true
	}
	if len(f.Attributes) > 0 {
		if pb.Markup.Attributes == nil {
			pb.Markup.Attributes = make(map[string]string, len(f.Attributes))
		}
		for k, v := range f.Attributes {
			pb.Markup.Attributes[k] = v
		}
	}
	if len(f.Keys) > 0 {
		if pb.Site.Keys == nil {
			pb.Site.Keys = make(map[string]string, len(f.Keys))
		}
		for k, v := range f.Keys {
			pb.Site.Keys[k] = v
		}
	}
	if f.RedirectFacility != "" {
		pb.URLs.RedirectFacility = RedirectFacility(f.RedirectFacility)
	}
	if f.HTMLURLExtensionStyle != "" {
		pb.URLs.HTMLExtensionStyle = f.HTMLURLExtensionStyle
	}
	if f.UIBundleURL != "" {
		pb.UI.Bundle.URL = f.UIBundleURL
	}
	if f.LogLevel != "" {
		pb.Runtime.Log.Level = f.LogLevel
	}
	if f.LogFormat != "" {
		pb.Runtime.Log.Format = f.LogFormat
	}
}

// absPath resolves flag paths against the working directory.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
