package ui

import (
	"bytes"
	"context"
	"crypto/sha1"
	"embed"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/playbook"
)

//go:embed bundle
var defaultBundle embed.FS

// Descriptor is the optional ui.yml at the bundle root.
type Descriptor struct {
	// StaticFiles are glob patterns of files published at the site root
	// instead of under the UI output directory.
	StaticFiles []string `yaml:"static_files"`
}

// HTTPClient downloads remote bundles.
var HTTPClient = &http.Client{Timeout: 2 * time.Minute}

// Load is the default UI loading collaborator.
func Load(ctx context.Context, pb *playbook.Playbook) (*Catalog, error) {
	bundleURL := pb.UI.Bundle.URL
	files, err := readBundle(ctx, pb)
	if err != nil {
		if bundleURL == "" {
			bundleURL = "built-in"
		}
		return nil, derrors.UILoadFailed(bundleURL, err)
	}
	if sp := strings.Trim(pb.UI.Bundle.StartPath, "/"); sp != "" {
		files = underPrefix(files, sp+"/")
	}
	if pb.UI.SupplementalFiles != "" {
		extra, err := readDirFS(os.DirFS(pb.UI.SupplementalFiles), ".")
		if err != nil {
			return nil, derrors.UILoadFailed(pb.UI.SupplementalFiles, err)
		}
		for k, v := range extra {
			files[k] = v
		}
	}

	var desc Descriptor
	if data, ok := files[DescriptorFile]; ok {
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return nil, derrors.UILoadFailed(bundleURL, fmt.Errorf("parse %s: %w", DescriptorFile, err))
		}
	}
	static := func(rel string) bool {
		for _, p := range desc.StaticFiles {
			if ok, _ := doublestar.Match(strings.TrimPrefix(p, "/"), rel); ok {
				return true
			}
		}
		return false
	}

	catalog := newCatalog(pb.UI.OutputDir)
	for _, rel := range sortedPaths(files) {
		catalog.add(rel, files[rel], static)
	}
	if catalog.Layout(pb.UI.DefaultLayout) == nil {
		return nil, derrors.UILoadFailed(bundleURL, fmt.Errorf("default layout %q not found", pb.UI.DefaultLayout))
	}
	slog.Debug("Loaded UI bundle", logfields.Source(bundleURL),
		slog.Int("layouts", len(catalog.layouts)), logfields.Count(len(catalog.assets)))
	return catalog, nil
}

func readBundle(ctx context.Context, pb *playbook.Playbook) (map[string][]byte, error) {
	u := pb.UI.Bundle.URL
	switch {
	case u == "":
		return readDirFS(defaultBundle, "bundle")
	case strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://"):
		data, err := download(ctx, pb)
		if err != nil {
			return nil, err
		}
		return readZip(data)
	}
	local := pb.ResolveLocal(u)
	info, err := os.Stat(local)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return readDirFS(os.DirFS(local), ".")
	}
	data, err := os.ReadFile(local)
	if err != nil {
		return nil, err
	}
	return readZip(data)
}

// download fetches a remote bundle into the cache. A cached copy is reused
// unless the bundle is a snapshot or fetch is requested.
func download(ctx context.Context, pb *playbook.Playbook) ([]byte, error) {
	u := pb.UI.Bundle.URL
	sum := sha1.Sum([]byte(u))
	cached := filepath.Join(pb.Runtime.CacheDir, "ui", hex.EncodeToString(sum[:])+".zip")
	if !pb.UI.Bundle.Snapshot && !pb.Runtime.Fetch {
		if data, err := os.ReadFile(cached); err == nil {
			return data, nil
		}
	}

	var data []byte
	err := pb.Runtime.Retry.Policy().Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := HTTPClient.Do(req)
		if err != nil {
			return derrors.WrapRetryable(err, derrors.CategoryNetwork, derrors.SeverityFatal, "UI bundle download failed")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status %s", resp.Status)
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return derrors.WrapRetryable(err, derrors.CategoryNetwork, derrors.SeverityFatal, "UI bundle download failed")
			}
			return err
		}
		data, err = io.ReadAll(resp.Body)
		return err
	}, derrors.IsRetryable, func(attempt int, err error) {
		slog.Warn("Retrying UI bundle download", logfields.URL(u), slog.Int("attempt", attempt), logfields.Error(err))
	})
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cached), 0o750); err == nil {
		if werr := os.WriteFile(cached, data, 0o600); werr != nil {
			slog.Warn("Failed to cache UI bundle", logfields.Path(cached), logfields.Error(werr))
		}
	}
	return data, nil
}

func readZip(data []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open bundle archive: %w", err)
	}
	files := make(map[string][]byte, len(zr.File))
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(strings.TrimPrefix(zf.Name, "/"))
		if strings.HasPrefix(name, "../") || hidden(name) {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, err
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", zf.Name, err)
		}
		files[name] = b
	}
	return files, nil
}

func readDirFS(fsys fs.FS, root string) (map[string][]byte, error) {
	files := map[string][]byte{}
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := p
		if root != "." {
			rel = strings.TrimPrefix(p, root+"/")
		}
		if hidden(rel) {
			return nil
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		files[rel] = b
		return nil
	})
	return files, err
}

func underPrefix(files map[string][]byte, prefix string) map[string][]byte {
	out := make(map[string][]byte, len(files))
	for k, v := range files {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			out[rest] = v
		}
	}
	return out
}

func hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func sortedPaths(files map[string][]byte) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
