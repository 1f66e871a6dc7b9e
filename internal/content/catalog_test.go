package content

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/model"
)

func page(component, version, module, relative string) *model.File {
	return &model.File{
		Path:      "modules/" + module + "/pages/" + relative,
		MediaType: model.MediaTypeMarkdown,
		Src: model.Src{
			Component: component,
			Version:   version,
			Module:    module,
			Family:    model.FamilyPage,
			Relative:  relative,
		},
	}
}

func TestAddFile_ComputesPublication(t *testing.T) {
	c := New(ExtensionStyleDefault)
	p := page("guide", "1.0", "admin", "setup/install.md")
	require.NoError(t, c.AddFile(p))

	require.Equal(t, "install.md", p.Src.Basename)
	require.Equal(t, "install", p.Src.Stem)
	require.Equal(t, ".md", p.Src.Extname)
	require.Equal(t, "guide/1.0/admin/setup/install.html", p.Out.Path)
	require.Equal(t, "/guide/1.0/admin/setup/install.html", p.Pub.URL)
	require.Equal(t, "../../../..", p.Pub.RootPath)
	require.Equal(t, "..", p.Pub.ModuleRootPath)
	require.Same(t, p, c.Find(KeyOf(p)))
}

func TestAddFile_ReservedSegmentsAreOmitted(t *testing.T) {
	c := New(ExtensionStyleDefault)
	p := page(RootComponent, UnversionedVersion, RootModule, "index.md")
	require.NoError(t, c.AddFile(p))
	require.Equal(t, "index.html", p.Out.Path)
	require.Equal(t, "/index.html", p.Pub.URL)
	require.Equal(t, ".", p.Pub.RootPath)
}

func TestAddFile_ExtensionStyles(t *testing.T) {
	tests := []struct {
		style    ExtensionStyle
		relative string
		outPath  string
		url      string
	}{
		{ExtensionStyleDrop, "install.md", "guide/1.0/install.html", "/guide/1.0/install"},
		{ExtensionStyleDrop, "index.md", "guide/1.0/index.html", "/guide/1.0/"},
		{ExtensionStyleIndexify, "install.md", "guide/1.0/install/index.html", "/guide/1.0/install/"},
		{ExtensionStyleIndexify, "sub/index.md", "guide/1.0/sub/index.html", "/guide/1.0/sub/"},
		{ExtensionStyleIndexify, "index.html", "guide/1.0/index.html", "/guide/1.0/"},
	}
	for _, tc := range tests {
		t.Run(string(tc.style)+"/"+tc.relative, func(t *testing.T) {
			c := New(tc.style)
			p := page("guide", "1.0", RootModule, tc.relative)
			require.NoError(t, c.AddFile(p))
			require.Equal(t, tc.outPath, p.Out.Path)
			require.Equal(t, tc.url, p.Pub.URL)
		})
	}
}

func TestAddFile_KeepsCallerPublication(t *testing.T) {
	c := New("")
	p := page("guide", "1.0", RootModule, "index.md")
	p.Out = model.NewOut("custom/place.html")
	p.Pub = &model.Pub{URL: "/custom/place.html"}
	require.NoError(t, c.AddFile(p))
	require.Equal(t, "custom/place.html", p.Out.Path)
}

func TestAddFile_Duplicate(t *testing.T) {
	c := New(ExtensionStyleDefault)
	require.NoError(t, c.AddFile(page("guide", "1.0", RootModule, "index.md")))
	err := c.AddFile(page("guide", "1.0", RootModule, "index.md"))
	require.ErrorIs(t, err, ErrDuplicateFile)
	require.Equal(t, 1, c.Len())
}

func TestAddFile_Incomplete(t *testing.T) {
	c := New(ExtensionStyleDefault)
	err := c.AddFile(&model.File{Path: "x", Src: model.Src{Component: "guide"}})
	require.ErrorIs(t, err, ErrIncompleteSrc)
}

func TestAssetsAndNonPublishableFamilies(t *testing.T) {
	c := New(ExtensionStyleDefault)
	img := &model.File{Path: "modules/ROOT/images/a.png", Src: model.Src{Component: "guide", Version: "1.0", Module: RootModule, Family: model.FamilyImage, Relative: "a.png"}}
	att := &model.File{Path: "modules/ops/attachments/x.zip", Src: model.Src{Component: "guide", Version: "1.0", Module: "ops", Family: model.FamilyAttachment, Relative: "x.zip"}}
	partial := &model.File{Path: "modules/ROOT/partials/p.md", Src: model.Src{Component: "guide", Version: "1.0", Module: RootModule, Family: model.FamilyPartial, Relative: "p.md"}}
	pg := page("guide", "1.0", RootModule, "index.md")
	for _, f := range []*model.File{img, att, partial, pg} {
		require.NoError(t, c.AddFile(f))
	}

	require.Equal(t, "guide/1.0/_images/a.png", img.Out.Path)
	require.Equal(t, "guide/1.0/ops/_attachments/x.zip", att.Out.Path)
	require.Nil(t, partial.Out)

	all := c.AllFiles()
	require.Equal(t, []*model.File{img, att}, all, "pages and unpublished families are excluded")
	require.Equal(t, []*model.File{pg}, c.Pages(nil))
	require.Equal(t, []*model.File{partial}, c.FilesByFamily(model.FamilyPartial))
	require.Len(t, c.Files(), 4)
}

func TestRemoveFile(t *testing.T) {
	c := New(ExtensionStyleDefault)
	p := page("guide", "1.0", RootModule, "index.md")
	require.NoError(t, c.AddFile(p))
	require.True(t, c.RemoveFile(KeyOf(p)))
	require.False(t, c.RemoveFile(KeyOf(p)))
	require.Zero(t, c.Len())
	require.Empty(t, c.Files())
}

func TestRelativeURL(t *testing.T) {
	tests := []struct{ from, to, want string }{
		{"/guide/1.0/index.html", "/guide/1.0/install.html", "install.html"},
		{"/guide/1.0/admin/setup.html", "/guide/1.0/index.html", "../index.html"},
		{"/guide/1.0/index.html", "/other/2.0/admin/x.html#frag", "../../other/2.0/admin/x.html#frag"},
		{"/guide/1.0/index.html", "/guide/1.0/index.html", "index.html"},
		{"/guide/1.0/install/", "/guide/1.0/", "../"},
		{"/guide/1.0/", "/guide/1.0/", "./"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, RelativeURL(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
