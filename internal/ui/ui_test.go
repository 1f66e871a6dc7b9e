package ui

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/playbook"
)

func testPlaybook(dir, bundleURL string) *playbook.Playbook {
	return &playbook.Playbook{
		Dir: dir,
		UI: playbook.UIConfig{
			Bundle:        playbook.UIBundle{URL: bundleURL},
			OutputDir:     "_",
			DefaultLayout: "default",
		},
		Runtime: playbook.RuntimeConfig{
			CacheDir: filepath.Join(dir, "cache"),
			Retry:    playbook.RetryConfig{Initial: "1ms", Max: "2ms"},
		},
	}
}

func outPaths(files []*model.File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Out.Path)
	}
	return out
}

func TestLoad_DefaultBundle(t *testing.T) {
	catalog, err := Load(context.Background(), testPlaybook(t.TempDir(), ""))
	require.NoError(t, err)

	require.Equal(t, []string{"404", "default"}, catalog.LayoutNames())
	require.Contains(t, catalog.Partials(), "nav-tree")
	require.ElementsMatch(t, []string{"_/css/site.css", "robots.txt"}, outPaths(catalog.AllFiles()))
	for _, f := range catalog.AllFiles() {
		require.Equal(t, "/"+f.Out.Path, f.Pub.URL)
	}
}

func bundleFiles() map[string]string {
	return map[string]string{
		"ui.yml":               "static_files: ['favicon.*']\n",
		"layouts/default.html": "<main>{{.Page.Contents}}</main>",
		"partials/head.html":   "<title>{{.Page.Title}}</title>",
		"css/site.css":         "body{}",
		"favicon.ico":          "ico",
		".git/config":          "hidden",
	}
}

func zipBundle(t *testing.T, prefix string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range bundleFiles() {
		w, err := zw.Create(prefix + name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLoad_DirectoryBundle(t *testing.T) {
	dir := t.TempDir()
	for name, body := range bundleFiles() {
		full := filepath.Join(dir, "ui", filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o600))
	}
	supplemental := filepath.Join(dir, "supplemental")
	require.NoError(t, os.MkdirAll(filepath.Join(supplemental, "css"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(supplemental, "css", "site.css"), []byte("body{color:red}"), 0o600))

	pb := testPlaybook(dir, "ui")
	pb.UI.SupplementalFiles = supplemental
	catalog, err := Load(context.Background(), pb)
	require.NoError(t, err)

	require.Equal(t, []string{"default"}, catalog.LayoutNames())
	require.ElementsMatch(t, []string{"_/css/site.css", "favicon.ico"}, outPaths(catalog.AllFiles()))
	for _, f := range catalog.AllFiles() {
		if f.Path == "css/site.css" {
			require.Equal(t, "body{color:red}", string(f.Contents))
		}
	}
}

func TestLoad_ZipBundleWithStartPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui.zip"), zipBundle(t, "theme/"), 0o600))

	pb := testPlaybook(dir, "ui.zip")
	pb.UI.Bundle.StartPath = "theme"
	catalog, err := Load(context.Background(), pb)
	require.NoError(t, err)
	require.NotNil(t, catalog.Layout("default"))
	require.Len(t, catalog.AllFiles(), 2)
}

func TestLoad_RemoteBundleIsCached(t *testing.T) {
	data := zipBundle(t, "")
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	dir := t.TempDir()
	pb := testPlaybook(dir, srv.URL+"/ui.zip")
	for range 2 {
		catalog, err := Load(context.Background(), pb)
		require.NoError(t, err)
		require.NotNil(t, catalog.Layout("default"))
	}
	require.Equal(t, int32(1), hits.Load())

	pb.UI.Bundle.Snapshot = true
	_, err := Load(context.Background(), pb)
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
}

func TestLoad_RemoteBundleNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Load(context.Background(), testPlaybook(t.TempDir(), srv.URL+"/missing.zip"))
	require.Error(t, err)
	require.True(t, derrors.IsCategory(err, derrors.CategoryUI))
}

func TestLoad_MissingDefaultLayout(t *testing.T) {
	pb := testPlaybook(t.TempDir(), "")
	pb.UI.DefaultLayout = "wide"
	_, err := Load(context.Background(), pb)
	require.Error(t, err)
	require.True(t, derrors.IsCategory(err, derrors.CategoryUI))
}

func TestLoad_MissingBundle(t *testing.T) {
	_, err := Load(context.Background(), testPlaybook(t.TempDir(), "nope.zip"))
	require.True(t, derrors.IsCategory(err, derrors.CategoryUI))
}
