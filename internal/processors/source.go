package processors

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
	"git.home.luguber.info/inful/pagepipe/internal/logfields"
	"git.home.luguber.info/inful/pagepipe/internal/params"
)

type sourceParams struct {
	Path     string `param:"path" validate:"path"`
	Pattern  string `param:"pattern" validate:"omitempty,regexp"`
	Encoding string `param:"encoding" fallback:"metadata:#/encoding" validate:"encoding"`
	Timezone string `param:"timezone" fallback:"metadata:#/timezone" validate:"timezone"`
	BaseURL  string `param:"baseurl" fallback:"metadata:#/url" validate:"required"`
}

func (p *sourceParams) Defaults() {
	p.Path = "."
	p.Encoding = "UTF-8"
	p.Timezone = "UTC"
}

// source passes upstream items on, then yields one item per regular file
// below Path in lexical order. Hidden files and directories are skipped.
func source(app *engine.Application, items item.Stream, p *sourceParams) (item.Stream, error) {
	var pattern *regexp.Regexp
	if p.Pattern != "" {
		pattern = regexp.MustCompile(p.Pattern)
	}
	enc, err := params.Encoding(p.Encoding)
	if err != nil {
		return nil, invalidArgument(err.Error())
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, invalidArgument(err.Error())
	}

	files := func(yield func(*item.Item, error) bool) {
		stopped := false
		err := filepath.WalkDir(p.Path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != p.Path && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(p.Path, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if pattern != nil && !pattern.MatchString(rel) {
				return nil
			}

			it, err := loadFile(path, rel, enc, loc, p.BaseURL)
			if err != nil {
				return err
			}
			app.Logger().Debug("Loaded source file", logfields.Path(path))
			if !yield(it, nil) {
				stopped = true
				return fs.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield(nil, ferrors.FileSystemError("read source files").WithCause(err).
				WithContext("path", p.Path).Build())
		}
	}
	return item.Concat(items, files), nil
}

// loadFile reads one file. The file is closed before the item is returned.
func loadFile(path, rel string, enc encoding.Encoding, loc *time.Location, baseURL string) (*item.Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mtime := info.ModTime().In(loc)
	return item.NewWebSite(map[string]any{
		keySource:           filepath.ToSlash(path),
		item.KeyDestination: rel,
		keyContent:          decode(raw, enc),
		keyCreated:          mtime,
		keyUpdated:          mtime,
		item.KeyBaseURL:     baseURL,
	})
}

// decode returns raw as text, or raw itself when it is not valid in enc.
func decode(raw []byte, enc encoding.Encoding) any {
	if enc == unicode.UTF8 {
		if utf8.Valid(raw) {
			return string(raw)
		}
		return raw
	}
	text, err := enc.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(text) {
		return raw
	}
	return string(text)
}
