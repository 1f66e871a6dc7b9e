package redirect

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/model"
	"git.home.luguber.info/inful/docsite/internal/playbook"
)

func testCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	c := content.New(content.ExtensionStyleDefault)
	_, err := c.RegisterComponentVersion(&model.ComponentVersion{Name: "widget", Version: "1.0"})
	require.NoError(t, err)
	_, err = c.RegisterComponentVersion(&model.ComponentVersion{Name: "widget", Version: "2.0", StartPage: "intro.md"})
	require.NoError(t, err)

	add := func(version, relative string, aliases ...string) {
		require.NoError(t, c.AddFile(&model.File{
			Path:      "modules/ROOT/pages/" + relative,
			MediaType: model.MediaTypeHTML,
			Aliases:   aliases,
			Src:       model.Src{Component: "widget", Version: version, Module: "ROOT", Family: model.FamilyPage, Relative: relative},
		}))
	}
	add("1.0", "index.md")
	add("2.0", "intro.md", "old-intro", "legacy:start.md", "intro.md", "../../../../escaped.md", "legacy:../../x.md")
	return c
}

func testPlaybook(facility playbook.RedirectFacility) *playbook.Playbook {
	return &playbook.Playbook{
		Site: playbook.SiteConfig{URL: "https://docs.example.test/docs", StartPage: "widget::intro.md"},
		URLs: playbook.URLsConfig{RedirectFacility: facility},
	}
}

func TestCollect(t *testing.T) {
	redirects := Collect(testPlaybook(playbook.RedirectStatic), testCatalog(t))
	to := "/widget/2.0/intro.html"
	require.Equal(t, []Redirect{
		{FromPath: "index.html", FromURL: "/index.html", ToURL: to},
		{FromPath: "widget/2.0/index.html", FromURL: "/widget/2.0/index.html", ToURL: to},
		{FromPath: "widget/2.0/legacy/start.html", FromURL: "/widget/2.0/legacy/start.html", ToURL: to},
		{FromPath: "widget/2.0/old-intro.html", FromURL: "/widget/2.0/old-intro.html", ToURL: to},
		{FromPath: "widget/index.html", FromURL: "/widget/index.html", ToURL: to},
	}, redirects)
}

func TestCollect_UnknownSiteStartPage(t *testing.T) {
	pb := testPlaybook(playbook.RedirectStatic)
	pb.Site.StartPage = "gadget::index.md"
	for _, r := range Collect(pb, testCatalog(t)) {
		require.NotEqual(t, "index.html", r.FromPath)
	}
}

func TestCollect_SkipsAliasesLeavingTheSite(t *testing.T) {
	for _, r := range Collect(testPlaybook(playbook.RedirectStatic), testCatalog(t)) {
		require.NotContains(t, r.FromPath, "..")
		require.NotContains(t, r.FromPath, "escaped")
	}
}

func TestProduceRedirects_Static(t *testing.T) {
	files, err := ProduceRedirects(testPlaybook(playbook.RedirectStatic), testCatalog(t))
	require.NoError(t, err)
	require.Len(t, files, 5)

	byPath := make(map[string]*model.File)
	for _, f := range files {
		byPath[f.Out.Path] = f
		require.Equal(t, model.MediaTypeHTML, f.MediaType)
	}
	page := string(byPath["widget/2.0/old-intro.html"].Contents)
	require.Contains(t, page, `<meta http-equiv="refresh" content="0; url=intro.html">`)
	require.Contains(t, page, `<link rel="canonical" href="https://docs.example.test/docs/widget/2.0/intro.html">`)
	require.Contains(t, string(byPath["index.html"].Contents), `url=widget/2.0/intro.html`)
}

func TestProduceRedirects_ServerConfig(t *testing.T) {
	tests := []struct {
		facility playbook.RedirectFacility
		path     string
		first    string
	}{
		{playbook.RedirectNetlify, NetlifyFile, "/docs/index.html /docs/widget/2.0/intro.html 301!"},
		{playbook.RedirectNginx, NginxFile, "location = /docs/index.html { return 301 /docs/widget/2.0/intro.html; }"},
	}
	for _, tc := range tests {
		t.Run(string(tc.facility), func(t *testing.T) {
			files, err := ProduceRedirects(testPlaybook(tc.facility), testCatalog(t))
			require.NoError(t, err)
			require.Len(t, files, 1)
			require.Equal(t, tc.path, files[0].Out.Path)
			lines := strings.Split(strings.TrimSuffix(string(files[0].Contents), "\n"), "\n")
			require.Len(t, lines, 5)
			require.Equal(t, tc.first, lines[0])
		})
	}
}

func TestProduceRedirects_Disabled(t *testing.T) {
	files, err := ProduceRedirects(testPlaybook(playbook.RedirectDisabled), testCatalog(t))
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestProduceRedirects_UnknownFacility(t *testing.T) {
	_, err := ProduceRedirects(testPlaybook("apache"), testCatalog(t))
	require.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
}

func TestIndexURL(t *testing.T) {
	require.Equal(t, "/widget/index.html", indexURL(content.ExtensionStyleDefault, "widget"))
	require.Equal(t, "/widget/", indexURL(content.ExtensionStyleIndexify, "widget"))
	require.Equal(t, "/", indexURL(content.ExtensionStyleDrop, ""))
}

func TestRenderStatic_ScriptTargetIsJSString(t *testing.T) {
	target := "../search.html?q=a&page=2"
	body, err := renderStatic(staticData{URL: target, Shown: target})
	require.NoError(t, err)
	page := string(body)

	start := strings.Index(page, "<script>location=")
	require.GreaterOrEqual(t, start, 0, page)
	start += len("<script>location=")
	end := strings.Index(page[start:], "</script>")
	require.GreaterOrEqual(t, end, 0, page)

	var got string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(page[start:start+end])), &got))
	require.Equal(t, target, got)
	require.Contains(t, page, `<a href="../search.html?q=a&amp;page=2">`)
}
