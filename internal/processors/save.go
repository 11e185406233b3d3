package processors

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
	"git.home.luguber.info/inful/pagepipe/internal/logfields"
	"git.home.luguber.info/inful/pagepipe/internal/params"
)

type saveParams struct {
	To       string `param:"to" validate:"path"`
	Encoding string `param:"encoding" fallback:"metadata:#/encoding" validate:"encoding"`
}

func (p *saveParams) Defaults() {
	p.To = "_site"
	p.Encoding = "UTF-8"
}

// save writes each item's content to its destination below To. Text is
// encoded with Encoding; bytes are written as they are.
func save(app *engine.Application, items item.Stream, p *saveParams) (item.Stream, error) {
	enc, err := params.Encoding(p.Encoding)
	if err != nil {
		return nil, invalidArgument(err.Error())
	}
	root, err := filepath.Abs(p.To)
	if err != nil {
		return nil, ferrors.FileSystemError("resolve output directory").WithCause(err).
			WithContext("path", p.To).Build()
	}

	return item.Each(items, func(it *item.Item) error {
		dest, ok := destination(it)
		if !ok {
			return ferrors.ValidationError("item has no destination").Build()
		}
		target := filepath.Join(root, filepath.FromSlash(dest))
		if rel, err := filepath.Rel(root, target); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return ferrors.ValidationError(fmt.Sprintf("destination %q escapes %s", dest, p.To)).
				WithContext("destination", dest).Build()
		}

		var data []byte
		switch c, _ := it.Get(keyContent); v := c.(type) {
		case []byte:
			data = v
		case string:
			data = []byte(v)
			if enc != unicode.UTF8 {
				encoded, err := enc.NewEncoder().Bytes(data)
				if err != nil {
					return itemError(err, "encode content as "+p.Encoding, it)
				}
				data = encoded
			}
		default:
			return itemError(errNoContent, "save", it)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return ferrors.FileSystemError("create output directory").WithCause(err).
				WithContext("path", filepath.Dir(target)).Build()
		}
		if err := os.WriteFile(target, data, 0o644); err != nil { //nolint:gosec // site output is meant to be served
			return ferrors.FileSystemError("write output").WithCause(err).
				WithContext("path", target).Build()
		}
		app.Logger().Debug("Saved item", logfields.Destination(dest), logfields.Path(target))
		return nil
	}), nil
}
