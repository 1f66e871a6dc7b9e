package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"

	"git.home.luguber.info/inful/docsite/internal/model"
)

// archiveModTime is stamped on every entry so archives are reproducible.
var archiveModTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// ArchivePublisher writes the site into a zip file.
type ArchivePublisher struct {
	Path string
}

func (p *ArchivePublisher) Publish(ctx context.Context, files []*model.File) (res DestinationResult, err error) {
	res = DestinationResult{Provider: ProviderArchive, Path: p.Path}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o750); err != nil {
		return res, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.Path), filepath.Base(p.Path)+".*.tmp")
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		name, err := entryPath(f)
		if err != nil {
			return res, err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: archiveModTime,
		})
		if err != nil {
			return res, fmt.Errorf("add %s: %w", f.Out.Path, err)
		}
		if _, err := w.Write(f.Contents); err != nil {
			return res, fmt.Errorf("write %s: %w", f.Out.Path, err)
		}
		res.Files++
		res.Bytes += int64(len(f.Contents))
	}
	if err := zw.Close(); err != nil {
		return res, err
	}
	if err := tmp.Close(); err != nil {
		return res, err
	}
	if err := os.Rename(tmp.Name(), p.Path); err != nil {
		return res, err
	}
	return res, nil
}
