package processors

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"maps"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

//go:embed theme/*.html
var defaultTheme embed.FS

type renderParams struct {
	Template string         `param:"template" validate:"required"`
	Themes   []string       `param:"themes" validate:"dive,path"`
	Context  map[string]any `param:"context"`
}

func (p *renderParams) Defaults() { p.Template = "page.html" }

// render executes an HTML template per item and stores the result as the
// item's content. An item's own "template" key selects its template.
// Templates from later theme directories replace earlier ones of the same
// name, and all of them replace the built-in theme.
func render(app *engine.Application, items item.Stream, p *renderParams) (item.Stream, error) {
	tmpl, err := loadTheme(p.Themes)
	if err != nil {
		return nil, err
	}

	return item.Each(items, func(it *item.Item) error {
		name := p.Template
		if own, ok := it.GetString(keyTemplate); ok && own != "" {
			name = own
		}
		t := tmpl.Lookup(name)
		if t == nil {
			return itemError(fmt.Errorf("template %q not found", name), "render", it)
		}

		data := maps.Clone(p.Context)
		if data == nil {
			data = map[string]any{}
		}
		data["item"] = it.AsMap()
		data["metadata"] = app.Metadata().Map()

		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return itemError(err, "render "+name, it)
		}
		it.Set(keyContent, buf.String())
		return nil
	}), nil
}

func loadTheme(dirs []string) (*template.Template, error) {
	tmpl, err := template.New("").Option("missingkey=zero").Funcs(templateFuncs).ParseFS(defaultTheme, "theme/*.html")
	if err != nil {
		return nil, ferrors.InternalError("parse built-in theme").WithCause(err).Build()
	}
	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
		if err != nil {
			return nil, ferrors.ConfigError("invalid theme directory").WithCause(err).
				WithContext("path", dir).Build()
		}
		if len(matches) == 0 {
			continue
		}
		if tmpl, err = tmpl.ParseFiles(matches...); err != nil {
			return nil, ferrors.ConfigError("parse theme").WithCause(err).
				WithContext("path", dir).Build()
		}
	}
	return tmpl, nil
}

var templateFuncs = template.FuncMap{
	"safe": func(v any) template.HTML {
		if v == nil {
			return ""
		}
		return template.HTML(fmt.Sprint(v)) //nolint:gosec // content is rendered by trusted processors
	},
	"formatTime": func(layout string, v any) string {
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Sprint(v)
		}
		return t.Format(layout)
	},
	"get": func(v any, key string) any {
		switch c := v.(type) {
		case *item.Item:
			val, _ := c.Get(key)
			return val
		case map[string]any:
			return c[key]
		}
		return nil
	},
}
