// Package aggregate collects raw files from the playbook's content sources
// and groups them by component version.
package aggregate

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/gitsource"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/observability"
	"git.home.luguber.info/inful/docsite/internal/playbook"
)

// Aggregator reads content sources.
type Aggregator struct {
	git         *gitsource.Client
	concurrency int
}

// New creates an aggregator using client for git sources.
func New(client *gitsource.Client, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Aggregator{git: client, concurrency: concurrency}
}

// Aggregate is the default content aggregation collaborator.
func Aggregate(ctx context.Context, pb *playbook.Playbook) (model.Aggregate, error) {
	return AggregateWithRecorder(ctx, pb, metrics.NoopRecorder{})
}

// AggregateWithRecorder aggregates content, reporting fetch retries to rec.
func AggregateWithRecorder(ctx context.Context, pb *playbook.Playbook, rec metrics.Recorder) (model.Aggregate, error) {
	client := gitsource.NewClient(pb.Runtime.CacheDir, pb.Runtime.Fetch,
		gitsource.WithRetryPolicy(pb.Runtime.Retry.Policy()),
		gitsource.WithRecorder(rec),
	)
	return New(client, pb.Content.Concurrency).Run(ctx, pb)
}

// Run aggregates every source of pb. Sources are read concurrently; the
// result follows playbook order, and versions contributed by several
// sources are merged.
func (a *Aggregator) Run(ctx context.Context, pb *playbook.Playbook) (model.Aggregate, error) {
	results := make([][]*model.ComponentVersion, len(pb.Content.Sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, src := range pb.Content.Sources {
		g.Go(func() error {
			cvs, err := a.source(gctx, pb, src)
			if err != nil {
				return err
			}
			results[i] = cvs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var agg model.Aggregate
	index := map[string]*model.ComponentVersion{}
	for _, cvs := range results {
		for _, cv := range cvs {
			id := cv.Version + "@" + cv.Name
			existing, ok := index[id]
			if !ok {
				index[id] = cv
				agg = append(agg, cv)
				continue
			}
			merge(existing, cv)
		}
	}
	observability.InfoContext(ctx, "Aggregated content",
		logfields.Count(agg.FileCount()), slog.Int("component_versions", len(agg)))
	return agg, nil
}

func merge(into, from *model.ComponentVersion) {
	into.Files = append(into.Files, from.Files...)
	for _, n := range from.Nav {
		if !slices.Contains(into.Nav, n) {
			into.Nav = append(into.Nav, n)
		}
	}
	if into.StartPage == "" {
		into.StartPage = from.StartPage
	}
}

// isRemote reports whether a source URL names a remote repository.
func isRemote(url string) bool {
	return strings.Contains(url, "://") || strings.HasPrefix(url, "git@")
}

func (a *Aggregator) source(ctx context.Context, pb *playbook.Playbook, src playbook.ContentSource) ([]*model.ComponentVersion, error) {
	if isRemote(src.URL) {
		repo, err := a.git.OpenRemote(ctx, src.URL, src.Auth)
		if err != nil {
			return nil, err
		}
		return a.fromRepository(ctx, repo, src)
	}

	dir := pb.ResolveLocal(src.URL)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, derrors.AggregationFailed(src.URL, fmt.Errorf("local content source not found: %s", dir))
	}
	if isGitRepository(dir) {
		repo, err := a.git.OpenLocal(dir)
		if err != nil {
			return nil, err
		}
		return a.fromRepository(ctx, repo, src)
	}

	var out []*model.ComponentVersion
	for _, sp := range src.StartPaths {
		files, err := readDir(filepath.Join(dir, filepath.FromSlash(sp)))
		if err != nil {
			return nil, derrors.AggregationFailed(src.URL, err)
		}
		cv, err := componentVersion(files, &model.Origin{URL: src.URL, RefType: "worktree", StartPath: sp})
		if err != nil {
			return nil, derrors.AggregationFailed(src.URL, err)
		}
		out = append(out, cv)
	}
	return out, nil
}

func (a *Aggregator) fromRepository(ctx context.Context, repo *gitsource.Repository, src playbook.ContentSource) ([]*model.ComponentVersion, error) {
	refs, err := repo.Refs(src.Branches, src.Tags)
	if err != nil {
		return nil, derrors.AggregationFailed(src.URL, err)
	}
	useWorktree := src.Worktree == nil || *src.Worktree

	var out []*model.ComponentVersion
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, sp := range src.StartPaths {
			origin := &model.Origin{URL: src.URL, Ref: ref.Name, RefType: string(ref.Type), StartPath: sp}
			var files []rawFile
			if ref.Current && useWorktree {
				origin.RefType = "worktree"
				files, err = readDir(filepath.Join(repo.WorktreeDir, filepath.FromSlash(sp)))
			} else {
				var blobs []gitsource.File
				blobs, err = repo.Files(ref, sp)
				files = fromBlobs(blobs)
			}
			if err != nil {
				return nil, derrors.AggregationFailed(src.URL, err).WithContext("ref", ref.Name)
			}
			cv, err := componentVersion(files, origin)
			if err != nil {
				return nil, derrors.AggregationFailed(src.URL, err).WithContext("ref", ref.Name)
			}
			out = append(out, cv)
			slog.Debug("Read component version", logfields.Source(src.URL), logfields.Ref(ref.Name),
				logfields.Component(cv.Name), logfields.Version(cv.Version), logfields.Count(len(cv.Files)))
		}
	}
	return out, nil
}

type rawFile struct {
	path     string
	contents []byte
}

func fromBlobs(blobs []gitsource.File) []rawFile {
	out := make([]rawFile, 0, len(blobs))
	for _, b := range blobs {
		if hidden(b.Path) {
			continue
		}
		out = append(out, rawFile{path: b.Path, contents: b.Contents})
	}
	return out
}

// readDir reads every non-hidden regular file under root.
func readDir(root string) ([]rawFile, error) {
	var files []rawFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, rawFile{path: filepath.ToSlash(rel), contents: data})
		return nil
	})
	return files, err
}

func hidden(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func componentVersion(files []rawFile, origin *model.Origin) (*model.ComponentVersion, error) {
	var desc *Descriptor
	var out []*model.File
	for _, f := range files {
		if f.path == DescriptorFile {
			d, err := ParseDescriptor(f.contents)
			if err != nil {
				return nil, err
			}
			desc = d
			continue
		}
		out = append(out, &model.File{
			Path:      f.path,
			Contents:  f.contents,
			MediaType: model.MediaTypeFor(f.path),
			Src: model.Src{
				Basename: path.Base(f.path),
				Extname:  path.Ext(f.path),
				Origin:   origin,
			},
		})
	}
	if desc == nil {
		return nil, fmt.Errorf("%w in %s (start path %q)", ErrMissingDescriptor, origin.URL, origin.StartPath)
	}
	for _, f := range out {
		f.Src.Component = desc.Name
		f.Src.Version = desc.Version
	}
	return &model.ComponentVersion{
		Name:           desc.Name,
		Version:        desc.Version,
		Title:          desc.Title,
		DisplayVersion: desc.DisplayVersion,
		Prerelease:     desc.Prerelease,
		StartPage:      desc.StartPage,
		Nav:            desc.Nav,
		Files:          out,
	}, nil
}

func isGitRepository(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	// bare repository
	_, headErr := os.Stat(filepath.Join(dir, "HEAD"))
	_, objErr := os.Stat(filepath.Join(dir, "objects"))
	return headErr == nil && objErr == nil
}

// LocalPaths returns the local directories of the playbook's content
// sources, for watching.
func LocalPaths(pb *playbook.Playbook) []string {
	var out []string
	for _, src := range pb.Content.Sources {
		if isRemote(src.URL) {
			continue
		}
		dir := pb.ResolveLocal(src.URL)
		for _, sp := range src.StartPaths {
			out = append(out, filepath.Join(dir, filepath.FromSlash(sp)))
		}
	}
	return out
}
