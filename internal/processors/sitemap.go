package processors

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"strings"
	"time"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapParams struct {
	Gzip    bool   `param:"gzip"`
	SaveAs  string `param:"save_as" validate:"path"`
	BaseURL string `param:"baseurl" fallback:"metadata:#/url" validate:"required"`
}

func (p *sitemapParams) Defaults() { p.SaveAs = "sitemap.xml" }

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// sitemap passes every item on and then emits a sitemap listing the
// absolute URL of each item that has one.
func sitemap(_ *engine.Application, items item.Stream, p *sitemapParams) (item.Stream, error) {
	saveAs := p.SaveAs
	if p.Gzip && !strings.HasSuffix(saveAs, ".gz") {
		saveAs += ".gz"
	}

	return func(yield func(*item.Item, error) bool) {
		doc := urlset{Xmlns: sitemapNS}
		seen := map[string]bool{}
		for it, err := range item.OrEmpty(items) {
			if err != nil {
				yield(nil, err)
				return
			}
			if loc, ok := it.GetString("absurl"); ok && !seen[loc] {
				seen[loc] = true
				entry := sitemapURL{Loc: loc}
				if t, ok := lastModified(it); ok {
					entry.LastMod = t.Format(time.RFC3339)
				}
				doc.URLs = append(doc.URLs, entry)
			}
			if !yield(it, nil) {
				return
			}
		}

		content, err := encodeSitemap(doc, p.Gzip)
		if err != nil {
			yield(nil, ferrors.ProcessorError("encode sitemap").WithCause(err).Build())
			return
		}
		out, err := item.NewWebSite(map[string]any{
			item.KeyDestination: saveAs,
			item.KeyBaseURL:     p.BaseURL,
			keyContent:          content,
		})
		if err != nil {
			yield(nil, err)
			return
		}
		yield(out, nil)
	}, nil
}

func encodeSitemap(doc urlset, compress bool) (any, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if !compress {
		return buf.String(), nil
	}

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return gz.Bytes(), nil
}

// lastModified returns the first of updated, published and created that
// holds a time.
func lastModified(it *item.Item) (time.Time, bool) {
	for _, key := range []string{keyUpdated, keyPublished, keyCreated} {
		if v, ok := it.Get(key); ok {
			if t, ok := v.(time.Time); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
