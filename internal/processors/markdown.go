package processors

import (
	"bytes"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

var markdownExts = []string{".md", ".markdown", ".mdown", ".mkd"}

var goldmarkExtensions = map[string]goldmark.Extender{
	"table":          extension.Table,
	"strikethrough":  extension.Strikethrough,
	"linkify":        extension.Linkify,
	"tasklist":       extension.TaskList,
	"footnote":       extension.Footnote,
	"typographer":    extension.Typographer,
	"definitionlist": extension.DefinitionList,
}

type markdownParams struct {
	InferTitle bool     `param:"infer_title"`
	Extensions []string `param:"extensions" validate:"dive,oneof=table strikethrough linkify tasklist footnote typographer definitionlist"`
}

// commonmark renders Markdown items with plain CommonMark.
func commonmark(_ *engine.Application, items item.Stream, p *markdownParams) (item.Stream, error) {
	return renderMarkdown(items, p)
}

type gfmParams markdownParams

func (p *gfmParams) Defaults() {
	p.Extensions = []string{"table", "strikethrough", "linkify", "tasklist", "footnote"}
}

// markdown is commonmark with the GitHub flavored extensions enabled unless
// extensions are listed explicitly.
func markdown(_ *engine.Application, items item.Stream, p *gfmParams) (item.Stream, error) {
	return renderMarkdown(items, (*markdownParams)(p))
}

func renderMarkdown(items item.Stream, p *markdownParams) (item.Stream, error) {
	exts := make([]goldmark.Extender, 0, len(p.Extensions))
	for _, name := range p.Extensions {
		exts = append(exts, goldmarkExtensions[name])
	}
	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	titleCaser := cases.Title(language.English)

	return item.Each(items, func(it *item.Item) error {
		if !hasExt(it, markdownExts...) {
			return nil
		}
		content, ok := textContent(it)
		if !ok {
			return itemError(errNoContent, "render markdown", it)
		}

		source := []byte(content)
		doc := md.Parser().Parse(text.NewReader(source))
		if p.InferTitle && !it.Has(keyTitle) {
			if h := firstHeading(doc); h != nil {
				it.Set(keyTitle, headingText(h, source))
				h.Parent().RemoveChild(h.Parent(), h)
			} else if dest, ok := destination(it); ok {
				base := strings.TrimSuffix(path.Base(dest), path.Ext(dest))
				it.Set(keyTitle, titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(base)))
			}
		}

		var buf bytes.Buffer
		if err := md.Renderer().Render(&buf, source, doc); err != nil {
			return itemError(err, "render markdown", it)
		}
		it.Set(keyContent, buf.String())

		dest, _ := destination(it)
		it.Set(item.KeyDestination, strings.TrimSuffix(dest, path.Ext(dest))+".html")
		return nil
	}), nil
}

// firstHeading returns the first top-level heading of level 1.
func firstHeading(doc gmast.Node) *gmast.Heading {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			return h
		}
	}
	return nil
}

func headingText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
