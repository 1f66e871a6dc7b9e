// Package publish writes the site files of a run to the configured
// destinations.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/playbook"
)

// ErrUnsafePath is returned for a file whose output path leaves the destination.
var ErrUnsafePath = errors.New("output path escapes destination")

// Destination providers.
const (
	ProviderFS      = "fs"
	ProviderArchive = "archive"
)

// Result reports what each destination received.
type Result struct {
	Destinations []DestinationResult `json:"destinations"`
}

// DestinationResult describes one completed destination.
type DestinationResult struct {
	Provider string `json:"provider"`
	Path     string `json:"path"`
	Files    int    `json:"files"`
	Bytes    int64  `json:"bytes"`
}

// Files returns the number of files written to the first destination.
func (r *Result) Files() int {
	if r == nil || len(r.Destinations) == 0 {
		return 0
	}
	return r.Destinations[0].Files
}

// Publisher writes a merged file set to one destination.
type Publisher interface {
	Publish(ctx context.Context, files []*model.File) (DestinationResult, error)
}

// PublishSite is the default site publisher.
func PublishSite(ctx context.Context, pb *playbook.Playbook, collections []model.Collection) (*Result, error) {
	files := Merge(collections)
	result := &Result{}
	for _, dest := range pb.Output.Destinations {
		pub, err := NewPublisher(dest)
		if err != nil {
			return nil, err
		}
		res, err := pub.Publish(ctx, files)
		if err != nil {
			return nil, derrors.PublishFailed(dest.Provider, err).WithContext("path", dest.Path)
		}
		slog.InfoContext(ctx, "Published site",
			logfields.Provider(res.Provider),
			logfields.Path(res.Path),
			logfields.Count(res.Files))
		result.Destinations = append(result.Destinations, res)
	}
	return result, nil
}

// NewPublisher returns the publisher for a destination.
func NewPublisher(dest playbook.Destination) (Publisher, error) {
	switch dest.Provider {
	case ProviderFS, "":
		return &FSPublisher{Dir: dest.Path, Clean: dest.Clean}, nil
	case ProviderArchive:
		return &ArchivePublisher{Path: dest.Path}, nil
	default:
		return nil, derrors.ConfigFieldInvalid("output.destinations.provider", fmt.Sprintf("unknown provider %q", dest.Provider))
	}
}

// Merge flattens collections into one file set keyed by output path. Files
// from later collections replace earlier ones at the same path. The result is
// sorted by output path.
func Merge(collections []model.Collection) []*model.File {
	byPath := make(map[string]*model.File)
	for _, c := range collections {
		if c == nil {
			continue
		}
		for _, f := range c.AllFiles() {
			if !f.Publishable() {
				continue
			}
			if prev, ok := byPath[f.Out.Path]; ok && prev != f {
				slog.Debug("Replacing site file", logfields.Path(f.Out.Path))
			}
			byPath[f.Out.Path] = f
		}
	}
	out := make([]*model.File, 0, len(byPath))
	for _, f := range byPath {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *model.File) int { return strings.Compare(a.Out.Path, b.Out.Path) })
	return out
}

// entryPath returns the cleaned posix output path of f, refusing paths that
// are absolute or climb out of the destination root.
func entryPath(f *model.File) (string, error) {
	p := path.Clean(f.Out.Path)
	if p == "." || !filepath.IsLocal(filepath.FromSlash(p)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, f.Out.Path)
	}
	return p, nil
}
