// Package playbook resolves the run configuration of the site generator from
// command line arguments, environment variables, and a YAML playbook file.
package playbook

import (
	"time"

	"git.home.luguber.info/inful/docsite/internal/retry"
)

// Playbook is the resolved, read-only configuration of one generator run.
type Playbook struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	UI      UIConfig      `yaml:"ui"`
	Markup  MarkupConfig  `yaml:"markup"`
	URLs    URLsConfig    `yaml:"urls"`
	Output  OutputConfig  `yaml:"output"`
	Runtime RuntimeConfig `yaml:"runtime"`
	Notify  NotifyConfig  `yaml:"notify"`
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`

	// File is the absolute path of the playbook file; Dir is its directory.
	// Relative paths in the playbook resolve against Dir.
	File string `yaml:"-"`
	Dir  string `yaml:"-"`
	// Env is the environment the playbook was resolved with, .env overlay included.
	Env map[string]string `yaml:"-"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Title     string            `yaml:"title"`
	URL       string            `yaml:"url,omitempty"`
	StartPage string            `yaml:"start_page,omitempty"`
	Sitemap   bool              `yaml:"sitemap,omitempty"`
	Keys      map[string]string `yaml:"keys,omitempty"`
}

// ContentConfig lists the content sources to aggregate.
type ContentConfig struct {
	Branches    []string        `yaml:"branches,omitempty"`
	Tags        []string        `yaml:"tags,omitempty"`
	Concurrency int             `yaml:"concurrency,omitempty"`
	Sources     []ContentSource `yaml:"sources"`
}

// ContentSource is a local directory, a local git repository, or a remote git URL.
type ContentSource struct {
	URL        string      `yaml:"url"`
	Branches   []string    `yaml:"branches,omitempty"`
	Tags       []string    `yaml:"tags,omitempty"`
	StartPath  string      `yaml:"start_path,omitempty"`
	StartPaths []string    `yaml:"start_paths,omitempty"`
	Worktree   *bool       `yaml:"worktree,omitempty"`
	Auth       *AuthConfig `yaml:"auth,omitempty"`
}

// AuthType enumerates git authentication methods.
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
	AuthTypeSSH   AuthType = "ssh"
)

// AuthConfig represents git authentication configuration.
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// UIConfig selects the UI bundle.
type UIConfig struct {
	Bundle            UIBundle `yaml:"bundle"`
	OutputDir         string   `yaml:"output_dir,omitempty"`
	DefaultLayout     string   `yaml:"default_layout,omitempty"`
	SupplementalFiles string   `yaml:"supplemental_files,omitempty"`
}

// UIBundle locates a UI bundle: a directory, a zip file, or an http(s) URL.
// An empty URL selects the built-in UI.
type UIBundle struct {
	URL       string `yaml:"url,omitempty"`
	StartPath string `yaml:"start_path,omitempty"`
	Snapshot  bool   `yaml:"snapshot,omitempty"`
}

// MarkupConfig configures document conversion.
type MarkupConfig struct {
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Extensions []string          `yaml:"extensions,omitempty"`
	HardWraps  bool              `yaml:"hard_wraps,omitempty"`
	Unsafe     bool              `yaml:"unsafe,omitempty"`
}

// RedirectFacility selects the redirect producer output.
type RedirectFacility string

const (
	RedirectStatic   RedirectFacility = "static"
	RedirectNetlify  RedirectFacility = "netlify"
	RedirectNginx    RedirectFacility = "nginx"
	RedirectDisabled RedirectFacility = "disabled"
)

// URLsConfig controls page URL shape and redirects.
type URLsConfig struct {
	HTMLExtensionStyle string           `yaml:"html_extension_style,omitempty"`
	RedirectFacility   RedirectFacility `yaml:"redirect_facility,omitempty"`
}

// OutputConfig lists publish destinations. Dir is shorthand for one fs destination.
type OutputConfig struct {
	Dir          string        `yaml:"dir,omitempty"`
	Clean        bool          `yaml:"clean,omitempty"`
	Destinations []Destination `yaml:"destinations,omitempty"`
}

// Destination is one publish target.
type Destination struct {
	Provider string `yaml:"provider"`
	Path     string `yaml:"path,omitempty"`
	Clean    bool   `yaml:"clean,omitempty"`
}

// RuntimeConfig holds process-level settings.
type RuntimeConfig struct {
	CacheDir string      `yaml:"cache_dir,omitempty"`
	Fetch    bool        `yaml:"fetch,omitempty"`
	Log      LogConfig   `yaml:"log,omitempty"`
	Retry    RetryConfig `yaml:"retry,omitempty"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// RetryConfig configures retries of remote fetches.
type RetryConfig struct {
	Mode       string `yaml:"mode,omitempty"`
	Initial    string `yaml:"initial,omitempty"`
	Max        string `yaml:"max,omitempty"`
	MaxRetries *int   `yaml:"max_retries,omitempty"`
}

// Policy converts the retry settings into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	initial, _ := time.ParseDuration(r.Initial)
	maxDelay, _ := time.ParseDuration(r.Max)
	maxRetries := -1
	if r.MaxRetries != nil {
		maxRetries = *r.MaxRetries
	}
	return retry.NewPolicy(retry.NormalizeMode(r.Mode), initial, maxDelay, maxRetries)
}

// NotifyConfig configures publish notifications.
type NotifyConfig struct {
	NATS NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig configures the NATS notifier. An empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig configures the run history store. An empty DB disables it.
type HistoryConfig struct {
	DB string `yaml:"db,omitempty"`
}

// MetricsConfig toggles prometheus instrumentation of generator runs.
// Textfile is written after one-shot runs in the node exporter textfile format.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	Textfile string `yaml:"textfile,omitempty"`
}
