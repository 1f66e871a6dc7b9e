package convert

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/docsite/internal/markup"
)

var extenders = []struct {
	name string
	ext  goldmark.Extender
}{
	{markup.ExtTable, extension.Table},
	{markup.ExtStrikethrough, extension.Strikethrough},
	{markup.ExtTaskList, extension.TaskList},
	{markup.ExtLinkify, extension.Linkify},
	{markup.ExtFootnote, extension.Footnote},
	{markup.ExtDefinitionList, extension.DefinitionList},
	{markup.ExtTypographer, extension.Typographer},
}

// NewMarkdown builds the goldmark instance for cfg.
func NewMarkdown(cfg *markup.Config) goldmark.Markdown {
	var exts []goldmark.Extender
	for _, e := range extenders {
		if cfg.Has(e.name) {
			exts = append(exts, e.ext)
		}
	}
	var rendererOpts []renderer.Option
	if cfg != nil && cfg.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if cfg != nil && cfg.Unsafe {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}
