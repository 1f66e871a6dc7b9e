package playbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

func writePlaybook(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimal = `
site:
  title: Docs
content:
  sources:
    - url: ./docs
`

func TestBuild_AppliesDefaults(t *testing.T) {
	path := writePlaybook(t, minimal)

	pb, err := Build([]string{path}, nil)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	require.Equal(t, "Docs", pb.Site.Title)
	require.Empty(t, pb.Site.URL)
	require.Equal(t, dir, pb.Dir)
	require.Equal(t, DefaultConcurrency, pb.Content.Concurrency)
	require.Equal(t, []string{"HEAD"}, pb.Content.Sources[0].Branches)
	require.Equal(t, []string{"."}, pb.Content.Sources[0].StartPaths)
	require.Equal(t, "_", pb.UI.OutputDir)
	require.Equal(t, "default", pb.URLs.HTMLExtensionStyle)
	require.Equal(t, RedirectStatic, pb.URLs.RedirectFacility)
	require.Equal(t, filepath.Join(dir, DefaultOutputDir), pb.Output.Dir)
	require.Len(t, pb.Output.Destinations, 1)
	require.Equal(t, "fs", pb.Output.Destinations[0].Provider)
	require.Equal(t, filepath.Join(dir, DefaultCacheDir), pb.Runtime.CacheDir)
	require.Equal(t, filepath.Join(dir, "docs"), pb.ResolveLocal(pb.Content.Sources[0].URL))
}

func TestBuild_Precedence(t *testing.T) {
	path := writePlaybook(t, `
site:
  url: https://file.test
content:
  sources:
    - url: ./docs
runtime:
  log:
    level: warn
`)

	tests := []struct {
		name  string
		args  []string
		env   map[string]string
		want  string
		level string
	}{
		{"file only", []string{path}, nil, "https://file.test", "warn"},
		{"env beats file", []string{path}, map[string]string{EnvSiteURL: "https://env.test", EnvLogLevel: "debug"}, "https://env.test", "debug"},
		{"flag beats env", []string{"--url", "https://flag.test", "--log-level", "error", path}, map[string]string{EnvSiteURL: "https://env.test", EnvLogLevel: "debug"}, "https://flag.test", "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb, err := Build(tt.args, tt.env)
			require.NoError(t, err)
			require.Equal(t, tt.want, pb.Site.URL)
			require.Equal(t, tt.level, pb.Runtime.Log.Level)
		})
	}
}

func TestBuild_ExpandsVariablesWithDotEnv(t *testing.T) {
	path := writePlaybook(t, `
site:
  title: ${TITLE}
  url: ${SITE}
content:
  sources:
    - url: ./docs
      auth:
        type: token
        token: ${TOKEN}
`)
	dir := filepath.Dir(path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TITLE=From Dotenv\nTOKEN=secret\nSITE=https://dotenv.test\n"), 0o600))

	pb, err := Build([]string{path}, map[string]string{"SITE": "https://process.test"})
	require.NoError(t, err)
	require.Equal(t, "From Dotenv", pb.Site.Title)
	require.Equal(t, "https://process.test", pb.Site.URL)
	require.Equal(t, "secret", pb.Content.Sources[0].Auth.Token)
	require.Equal(t, "secret", pb.Env["TOKEN"])
}

func TestBuild_RepeatableAttributes(t *testing.T) {
	path := writePlaybook(t, minimal+`
markup:
  attributes:
    product: Widget
`)
	pb, err := Build([]string{"-a", "version=2.0", "--attribute", "product=Gadget", path}, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"product": "Gadget", "version": "2.0"}, pb.Markup.Attributes)
}

func TestBuild_ToDirReplacesDestinations(t *testing.T) {
	path := writePlaybook(t, minimal+`
output:
  destinations:
    - provider: archive
      path: site.zip
`)
	out := t.TempDir()
	pb, err := Build([]string{"--to-dir", out, "--clean", path}, nil)
	require.NoError(t, err)
	require.Equal(t, []Destination{{Provider: "fs", Path: out, Clean: true}}, pb.Output.Destinations)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		args  func(path string) []string
		field string
	}{
		{"relative site url", "site:\n  url: /docs\ncontent:\n  sources:\n    - url: ./docs\n", nil, "site.url"},
		{"no sources", "site:\n  title: x\n", nil, "content.sources"},
		{"bad facility", minimal + "urls:\n  redirect_facility: apache\n", nil, "urls.redirect_facility"},
		{"bad style flag", minimal, func(p string) []string { return []string{"--html-url-extension-style", "weird", p} }, "urls.html_extension_style"},
		{"bad provider", minimal + "output:\n  destinations:\n    - provider: s3\n      path: x\n", nil, "output.destinations[0].provider"},
		{"bad retry", minimal + "runtime:\n  retry:\n    initial: soon\n", nil, "runtime.retry.initial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePlaybook(t, tt.body)
			args := []string{path}
			if tt.args != nil {
				args = tt.args(path)
			}
			_, err := Build(args, nil)
			require.Error(t, err)
			require.True(t, derrors.IsCategory(err, derrors.CategoryConfig), "got %v", err)
			se, ok := derrors.As(err)
			require.True(t, ok)
			require.Equal(t, tt.field, se.Context["field"])
		})
	}
}

func TestBuild_MissingFile(t *testing.T) {
	_, err := Build([]string{filepath.Join(t.TempDir(), "nope.yml")}, nil)
	require.Error(t, err)
	require.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
	se, _ := derrors.As(err)
	require.Equal(t, "playbook file not found", se.Message)
}

func TestBuild_MissingArgument(t *testing.T) {
	_, err := Build(nil, nil)
	require.Error(t, err)
	require.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
}

func TestBuild_TrailingSlashTrimmedFromURL(t *testing.T) {
	path := writePlaybook(t, minimal)
	pb, err := Build([]string{"--url", "https://x.test/", path}, nil)
	require.NoError(t, err)
	require.Equal(t, "https://x.test", pb.Site.URL)
}

func TestBuild_ResolvesSideChannelPaths(t *testing.T) {
	path := writePlaybook(t, minimal+`
history:
  db: state/runs.db
metrics:
  enabled: true
  textfile: metrics/docsite.prom
`)

	pb, err := Build([]string{path}, nil)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	require.Equal(t, filepath.Join(dir, "state", "runs.db"), pb.History.DB)
	require.True(t, pb.Metrics.Enabled)
	require.Equal(t, filepath.Join(dir, "metrics", "docsite.prom"), pb.Metrics.Textfile)
}
