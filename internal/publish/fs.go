package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/model"
)

// FSPublisher writes files below a directory. With Clean set the site is
// written to a sibling staging directory that replaces Dir once complete.
type FSPublisher struct {
	Dir   string
	Clean bool
}

func (p *FSPublisher) Publish(ctx context.Context, files []*model.File) (DestinationResult, error) {
	res := DestinationResult{Provider: ProviderFS, Path: p.Dir}
	target := p.Dir
	if p.Clean {
		target = p.Dir + "_stage"
		if err := os.RemoveAll(target); err != nil {
			return res, fmt.Errorf("reset staging directory: %w", err)
		}
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			p.abort(target)
			return res, err
		}
		rel, err := entryPath(f)
		if err != nil {
			p.abort(target)
			return res, err
		}
		dst := filepath.Join(target, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			p.abort(target)
			return res, err
		}
		if err := os.WriteFile(dst, f.Contents, 0o644); err != nil { //nolint:gosec // public site output
			p.abort(target)
			return res, err
		}
		res.Files++
		res.Bytes += int64(len(f.Contents))
	}
	if len(files) == 0 {
		if err := os.MkdirAll(target, 0o750); err != nil {
			return res, err
		}
	}
	if p.Clean {
		if err := promote(target, p.Dir); err != nil {
			p.abort(target)
			return res, err
		}
	}
	return res, nil
}

func (p *FSPublisher) abort(target string) {
	if !p.Clean {
		return
	}
	if err := os.RemoveAll(target); err != nil {
		slog.Warn("Failed to remove staging directory", logfields.Path(target), logfields.Error(err))
	}
}

// promote swaps stage into place, keeping the previous output until the
// rename succeeded.
func promote(stage, dir string) error {
	prev := dir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(stage, dir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	return nil
}
