package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/playbook"
)

func file(p string) *model.File {
	return &model.File{Path: p, MediaType: model.MediaTypeFor(p), Contents: []byte(p)}
}

func TestClassify(t *testing.T) {
	agg := model.Aggregate{{
		Name:    "widget",
		Version: "1.0",
		Nav:     []string{"modules/ROOT/nav.md"},
		Files: []*model.File{
			file("modules/ROOT/pages/index.md"),
			file("modules/ROOT/pages/guide/install.md"),
			file("modules/ROOT/pages/legacy.html"),
			file("modules/ROOT/nav.md"),
			file("modules/api/partials/snippet.md"),
			file("modules/api/examples/main.go"),
			file("modules/api/images/diagram.svg"),
			file("modules/api/attachments/spec.pdf"),
			file("modules/api/other/readme.md"),
			file("README.md"),
		},
	}}
	pb := &playbook.Playbook{URLs: playbook.URLsConfig{HTMLExtensionStyle: "default"}}

	catalog, err := Classify(pb, agg, nil)
	require.NoError(t, err)
	require.Equal(t, 7, catalog.Len())

	page := catalog.Find(content.Key{Component: "widget", Version: "1.0", Module: "ROOT", Family: model.FamilyPage, Relative: "guide/install.md"})
	require.NotNil(t, page)
	require.Equal(t, "widget/1.0/guide/install.html", page.Out.Path)
	require.Equal(t, "install", page.Src.Stem)

	require.Len(t, catalog.FilesByFamily(model.FamilyNav), 1)
	require.Len(t, catalog.FilesByFamily(model.FamilyPartial), 1)
	require.Len(t, catalog.FilesByFamily(model.FamilyExample), 1)
	require.Nil(t, catalog.Find(content.Key{Component: "widget", Version: "1.0", Module: "ROOT", Family: model.FamilyPage, Relative: "legacy.html"}))

	img := catalog.Find(content.Key{Component: "widget", Version: "1.0", Module: "api", Family: model.FamilyImage, Relative: "diagram.svg"})
	require.NotNil(t, img)
	require.Equal(t, "widget/1.0/api/_images/diagram.svg", img.Out.Path)

	// The aggregate is left untouched.
	require.Empty(t, agg[0].Files[0].Src.Family)
	require.NotNil(t, catalog.ComponentVersion("widget", "1.0"))
}

func TestClassify_DuplicateComponentVersion(t *testing.T) {
	agg := model.Aggregate{{Name: "a", Version: "1"}, {Name: "a", Version: "1"}}
	_, err := Classify(&playbook.Playbook{}, agg, nil)
	require.ErrorIs(t, err, content.ErrDuplicateComponentVersion)
}

func TestLocate(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
		want model.Src
	}{
		{"modules/ROOT/pages/a/b.md", true, model.Src{Module: "ROOT", Family: model.FamilyPage, Relative: "a/b.md"}},
		{"modules/ROOT/pages/a.adoc", false, model.Src{}},
		{"modules/ROOT/pages/a.html", false, model.Src{}},
		{"modules/ROOT/pages/a.txt", false, model.Src{}},
		{"modules/ROOT/partials", false, model.Src{}},
		{"modules//pages/a.md", false, model.Src{}},
		{"docs/ROOT/pages/a.md", false, model.Src{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Locate(file(tt.path), nil)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
