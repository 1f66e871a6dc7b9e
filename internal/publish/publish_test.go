package publish

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/playbook"
	"git.home.luguber.info/inful/docsite/internal/sitefile"
)

func file(t *testing.T, p, body string) *model.File {
	t.Helper()
	f, err := sitefile.New(p, body, model.MediaTypeText)
	require.NoError(t, err)
	return f
}

func collections(t *testing.T) []model.Collection {
	t.Helper()
	return []model.Collection{
		model.NewFileList([]*model.File{file(t, "widget/index.html", "page"), file(t, "robots.txt", "ui")}),
		model.NewFileList([]*model.File{{Path: "unpublished.md"}}),
		model.NewFileList([]*model.File{file(t, "robots.txt", "site")}),
	}
}

func TestMerge_LaterCollectionsWin(t *testing.T) {
	files := Merge(collections(t))
	require.Len(t, files, 2)
	require.Equal(t, "robots.txt", files[0].Out.Path)
	require.Equal(t, "site", string(files[0].Contents))
	require.Equal(t, "widget/index.html", files[1].Out.Path)
}

func TestPublishSite_FS(t *testing.T) {
	tests := []struct {
		name      string
		clean     bool
		keepStale bool
	}{
		{"in place", false, true},
		{"clean", true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "site")
			require.NoError(t, os.MkdirAll(dir, 0o750))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.html"), []byte("old"), 0o600))

			pb := &playbook.Playbook{Output: playbook.OutputConfig{Destinations: []playbook.Destination{{Provider: ProviderFS, Path: dir, Clean: tc.clean}}}}
			res, err := PublishSite(context.Background(), pb, collections(t))
			require.NoError(t, err)
			require.Equal(t, []DestinationResult{{Provider: ProviderFS, Path: dir, Files: 2, Bytes: 8}}, res.Destinations)
			require.Equal(t, 2, res.Files())

			data, err := os.ReadFile(filepath.Join(dir, "widget", "index.html"))
			require.NoError(t, err)
			require.Equal(t, "page", string(data))
			data, err = os.ReadFile(filepath.Join(dir, "robots.txt"))
			require.NoError(t, err)
			require.Equal(t, "site", string(data))

			_, err = os.Stat(filepath.Join(dir, "stale.html"))
			require.Equal(t, tc.keepStale, err == nil)
			_, err = os.Stat(dir + "_stage")
			require.True(t, os.IsNotExist(err))
			_, err = os.Stat(dir + ".prev")
			require.True(t, os.IsNotExist(err))
		})
	}
}

func TestPublishSite_Archive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "out", "site.zip")
	pb := &playbook.Playbook{Output: playbook.OutputConfig{Destinations: []playbook.Destination{{Provider: ProviderArchive, Path: archive}}}}
	res, err := PublishSite(context.Background(), pb, collections(t))
	require.NoError(t, err)
	require.Equal(t, 2, res.Destinations[0].Files)

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()
	got := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		got[f.Name] = string(data)
	}
	require.Equal(t, map[string]string{"robots.txt": "site", "widget/index.html": "page"}, got)
}

func TestPublishSite_Errors(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	tests := []struct {
		name     string
		dest     playbook.Destination
		category derrors.ErrorCategory
	}{
		{"unknown provider", playbook.Destination{Provider: "s3", Path: "bucket"}, derrors.CategoryConfig},
		{"unwritable directory", playbook.Destination{Provider: ProviderFS, Path: filepath.Join(blocker, "site")}, derrors.CategoryPublish},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pb := &playbook.Playbook{Output: playbook.OutputConfig{Destinations: []playbook.Destination{tc.dest}}}
			_, err := PublishSite(context.Background(), pb, collections(t))
			require.Error(t, err)
			require.True(t, derrors.IsCategory(err, tc.category))
		})
	}
}

func TestPublishSite_RejectsEscapingPaths(t *testing.T) {
	for _, provider := range []string{ProviderFS, ProviderArchive} {
		for _, out := range []string{"../escaped.html", "a/../../escaped.html", "/abs.html", ".."} {
			t.Run(provider+" "+out, func(t *testing.T) {
				root := t.TempDir()
				dest := filepath.Join(root, "site", "out")
				if provider == ProviderArchive {
					dest = filepath.Join(root, "site", "site.zip")
				}
				escaping := &model.File{Path: out, Out: &model.Out{Path: out}, Pub: &model.Pub{URL: "/x"}}
				pb := &playbook.Playbook{Output: playbook.OutputConfig{Destinations: []playbook.Destination{
					{Provider: provider, Path: dest, Clean: true},
				}}}

				_, err := PublishSite(context.Background(), pb, []model.Collection{
					model.NewFileList([]*model.File{file(t, "index.html", "ok"), escaping}),
				})
				require.ErrorIs(t, err, ErrUnsafePath)
				require.True(t, derrors.IsCategory(err, derrors.CategoryPublish))
				require.NoFileExists(t, filepath.Join(root, "escaped.html"))
				require.NoFileExists(t, filepath.Join(root, "site", "escaped.html"))
				require.NoDirExists(t, dest+"_stage")
				if provider == ProviderArchive {
					require.NoFileExists(t, dest)
				}
			})
		}
	}
}
