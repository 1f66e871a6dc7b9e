package playbook

import "path/filepath"

// Default values applied when the playbook leaves a setting empty.
const (
	DefaultOutputDir         = "build/site"
	DefaultCacheDir          = ".cache/docsite"
	DefaultUIOutputDir       = "_"
	DefaultLayout            = "default"
	DefaultExtensionStyle    = "default"
	DefaultRedirectFacility  = RedirectStatic
	DefaultConcurrency       = 4
	DefaultNATSSubject       = "site.published"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultRetryMode         = "linear"
	DefaultRetryInitialDelay = "1s"
	DefaultRetryMaxDelay     = "30s"
	DefaultBranchPattern     = "HEAD"
	DefaultDestination       = "fs"
)

// DefaultApplier fills one section of the playbook.
type DefaultApplier interface {
	ApplyDefaults(pb *Playbook)
}

type siteDefaults struct{}

func (siteDefaults) ApplyDefaults(pb *Playbook) {
	if pb.Site.Keys == nil {
		pb.Site.Keys = map[string]string{}
	}
}

type contentDefaults struct{}

func (contentDefaults) ApplyDefaults(pb *Playbook) {
	if pb.Content.Concurrency <= 0 {
		pb.Content.Concurrency = DefaultConcurrency
	}
	if len(pb.Content.Branches) == 0 {
		pb.Content.Branches = []string{DefaultBranchPattern}
	}
	for i := range pb.Content.Sources {
		src := &pb.Content.Sources[i]
		if len(src.Branches) == 0 && len(src.Tags) == 0 {
			src.Branches = append([]string(nil), pb.Content.Branches...)
			src.Tags = append([]string(nil), pb.Content.Tags...)
		}
		if src.StartPath == "" && len(src.StartPaths) == 0 {
			src.StartPaths = []string{"."}
		} else if src.StartPath != "" {
			src.StartPaths = append([]string{src.StartPath}, src.StartPaths...)
			src.StartPath = ""
		}
		for j, sp := range src.StartPaths {
			src.StartPaths[j] = filepath.ToSlash(filepath.Clean(sp))
		}
	}
}

type uiDefaults struct{}

func (uiDefaults) ApplyDefaults(pb *Playbook) {
	if pb.UI.OutputDir == "" {
		pb.UI.OutputDir = DefaultUIOutputDir
	}
	if pb.UI.DefaultLayout == "" {
		pb.UI.DefaultLayout = DefaultLayout
	}
}

type urlDefaults struct{}

func (urlDefaults) ApplyDefaults(pb *Playbook) {
	if pb.URLs.HTMLExtensionStyle == "" {
		pb.URLs.HTMLExtensionStyle = DefaultExtensionStyle
	}
	if pb.URLs.RedirectFacility == "" {
		pb.URLs.RedirectFacility = DefaultRedirectFacility
	}
}

type outputDefaults struct{}

func (outputDefaults) ApplyDefaults(pb *Playbook) {
	if len(pb.Output.Destinations) == 0 {
		if pb.Output.Dir == "" {
			pb.Output.Dir = DefaultOutputDir
		}
		pb.Output.Destinations = []Destination{{Provider: DefaultDestination, Path: pb.Output.Dir, Clean: pb.Output.Clean}}
		return
	}
	for i := range pb.Output.Destinations {
		d := &pb.Output.Destinations[i]
		if d.Provider == "" {
			d.Provider = DefaultDestination
		}
		if pb.Output.Clean {
			d.Clean = true
		}
	}
	if pb.Output.Dir == "" {
		for _, d := range pb.Output.Destinations {
			if d.Provider == DefaultDestination {
				pb.Output.Dir = d.Path
				break
			}
		}
	}
}

type runtimeDefaults struct{}

func (runtimeDefaults) ApplyDefaults(pb *Playbook) {
	if pb.Runtime.CacheDir == "" {
		pb.Runtime.CacheDir = DefaultCacheDir
	}
	if pb.Runtime.Log.Level == "" {
		pb.Runtime.Log.Level = DefaultLogLevel
	}
	if pb.Runtime.Log.Format == "" {
		pb.Runtime.Log.Format = DefaultLogFormat
	}
	r := &pb.Runtime.Retry
	if r.Mode == "" {
		r.Mode = DefaultRetryMode
	}
	if r.Initial == "" {
		r.Initial = DefaultRetryInitialDelay
	}
	if r.Max == "" {
		r.Max = DefaultRetryMaxDelay
	}
}

type notifyDefaults struct{}

func (notifyDefaults) ApplyDefaults(pb *Playbook) {
	if pb.Notify.NATS.URL != "" && pb.Notify.NATS.Subject == "" {
		pb.Notify.NATS.Subject = DefaultNATSSubject
	}
}

var defaultAppliers = []DefaultApplier{
	siteDefaults{},
	contentDefaults{},
	uiDefaults{},
	urlDefaults{},
	outputDefaults{},
	runtimeDefaults{},
	notifyDefaults{},
}

func applyDefaults(pb *Playbook) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(pb)
	}
}
