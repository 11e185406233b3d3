package processors

import (
	"errors"
	"fmt"
	"path"
	"strings"

	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

// Well-known item keys.
const (
	keyContent   = "content"
	keySource    = "source"
	keyCreated   = "created"
	keyUpdated   = "updated"
	keyPublished = "published"
	keyTitle     = "title"
	keyTemplate  = "template"
)

var errNoContent = errors.New("item has no content")

// textContent returns the item's content when it is text.
func textContent(it *item.Item) (string, bool) {
	return it.GetString(keyContent)
}

// destination returns the item's destination as a slash path.
func destination(it *item.Item) (string, bool) {
	v, ok := it.Get(item.KeyDestination)
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(fmt.Sprint(v), "\\", "/"), true
}

// hasExt reports whether the item's destination ends in one of exts.
func hasExt(it *item.Item, exts ...string) bool {
	dest, ok := destination(it)
	if !ok {
		return false
	}
	ext := strings.ToLower(path.Ext(dest))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// itemError classifies a failure tied to one item.
func itemError(err error, message string, it *item.Item) error {
	b := ferrors.ProcessorError(message).WithCause(err)
	if dest, ok := destination(it); ok {
		b = b.WithContext("destination", dest)
	}
	return b.Build()
}

// invalidArgument reports a parameter combination rejected when the step begins.
func invalidArgument(message string) error {
	return ferrors.ConfigError(message).Build()
}
