package processors

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

const (
	atomNS        = "http://www.w3.org/2005/Atom"
	summaryLength = 280
)

type feedParams struct {
	Format   string `param:"syndication_format" validate:"oneof=atom rss"`
	SaveAs   string `param:"save_as" validate:"path"`
	Title    string `param:"title" fallback:"metadata:#/title" validate:"required"`
	Link     string `param:"link" fallback:"metadata:#/url" validate:"required"`
	Subtitle string `param:"subtitle" fallback:"metadata:#/description"`
	Limit    int    `param:"limit" validate:"gte=0"`
	BaseURL  string `param:"baseurl" fallback:"metadata:#/url" validate:"required"`
}

func (p *feedParams) Defaults() {
	p.Format = "atom"
	p.SaveAs = "feed.xml"
}

type feedEntry struct {
	id, title, link, summary, content string
	date                              time.Time
}

// feed passes every item on and then emits an Atom or RSS document with one
// entry per item that has an absolute URL, up to Limit entries.
func feed(_ *engine.Application, items item.Stream, p *feedParams) (item.Stream, error) {
	return func(yield func(*item.Item, error) bool) {
		var entries []feedEntry
		for it, err := range item.OrEmpty(items) {
			if err != nil {
				yield(nil, err)
				return
			}
			if p.Limit == 0 || len(entries) < p.Limit {
				if e, ok := newFeedEntry(it); ok {
					entries = append(entries, e)
				}
			}
			if !yield(it, nil) {
				return
			}
		}

		var doc any
		if p.Format == "rss" {
			doc = rssDocument(p, entries)
		} else {
			doc = atomDocument(p, entries)
		}
		var buf bytes.Buffer
		buf.WriteString(xml.Header)
		enc := xml.NewEncoder(&buf)
		enc.Indent("", "  ")
		if err := enc.Encode(doc); err != nil {
			yield(nil, ferrors.ProcessorError("encode feed").WithCause(err).Build())
			return
		}

		out, err := item.NewWebSite(map[string]any{
			item.KeyDestination: p.SaveAs,
			item.KeyBaseURL:     p.BaseURL,
			keyContent:          buf.String(),
		})
		if err != nil {
			yield(nil, err)
			return
		}
		yield(out, nil)
	}, nil
}

func newFeedEntry(it *item.Item) (feedEntry, bool) {
	link, ok := it.GetString("absurl")
	if !ok {
		return feedEntry{}, false
	}
	e := feedEntry{id: entryID(link), link: link}
	e.title, _ = it.GetString(keyTitle)
	if e.title == "" {
		e.title, _ = destination(it)
	}
	e.content, _ = textContent(it)
	if s, ok := it.GetString("summary"); ok {
		e.summary = s
	} else {
		e.summary = summarize(e.content)
	}
	if v, ok := it.Get(keyPublished); ok {
		e.date, _ = v.(time.Time)
	}
	if e.date.IsZero() {
		e.date, _ = lastModified(it)
	}
	return e, true
}

// entryID derives a stable identifier from an entry's URL.
func entryID(link string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

// summarize extracts the leading text of an HTML fragment.
func summarize(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return truncate(strings.Join(strings.Fields(sb.String()), " "), summaryLength)
		case html.StartTagToken:
			if a := tagAtom(z); a == atom.Script || a == atom.Style {
				skip++
			}
		case html.EndTagToken:
			if a := tagAtom(z); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

func tagAtom(z *html.Tokenizer) atom.Atom {
	name, _ := z.TagName()
	return atom.Lookup(name)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}

type atomFeed struct {
	XMLName  xml.Name    `xml:"feed"`
	Xmlns    string      `xml:"xmlns,attr"`
	ID       string      `xml:"id"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle,omitempty"`
	Updated  string      `xml:"updated"`
	Links    []atomLink  `xml:"link"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomEntry struct {
	ID      string       `xml:"id"`
	Title   string       `xml:"title"`
	Updated string       `xml:"updated"`
	Link    atomLink     `xml:"link"`
	Summary string       `xml:"summary,omitempty"`
	Content *atomContent `xml:"content,omitempty"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

func atomDocument(p *feedParams, entries []feedEntry) atomFeed {
	doc := atomFeed{
		Xmlns:    atomNS,
		ID:       entryID(p.Link),
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Links: []atomLink{
			{Href: p.Link},
			{Href: strings.TrimRight(p.BaseURL, "/") + "/" + strings.TrimLeft(p.SaveAs, "/"), Rel: "self"},
		},
	}
	var updated time.Time
	for _, e := range entries {
		if e.date.After(updated) {
			updated = e.date
		}
		entry := atomEntry{
			ID:      e.id,
			Title:   e.title,
			Updated: e.date.UTC().Format(time.RFC3339),
			Link:    atomLink{Href: e.link, Rel: "alternate"},
			Summary: e.summary,
		}
		if e.content != "" {
			entry.Content = &atomContent{Type: "html", Body: e.content}
		}
		doc.Entries = append(doc.Entries, entry)
	}
	doc.Updated = updated.UTC().Format(time.RFC3339)
	return doc
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate,omitempty"`
	Description string  `xml:"description,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

func rssDocument(p *feedParams, entries []feedEntry) rssFeed {
	ch := rssChannel{Title: p.Title, Link: p.Link, Description: p.Subtitle}
	if ch.Description == "" {
		ch.Description = p.Title
	}
	for _, e := range entries {
		it := rssItem{
			Title:       e.title,
			Link:        e.link,
			GUID:        rssGUID{IsPermaLink: "false", Value: e.id},
			Description: e.summary,
		}
		if !e.date.IsZero() {
			it.PubDate = e.date.Format(time.RFC1123Z)
		}
		ch.Items = append(ch.Items, it)
	}
	return rssFeed{Version: "2.0", Channel: ch}
}
