package jsonref

import (
	"errors"
	"fmt"

	"github.com/go-openapi/jsonpointer"
)

// ErrPointer is returned when a pointer cannot be applied to a document.
var ErrPointer = errors.New("pointer lookup failed")

// Lookup applies an RFC 6901 pointer to doc. The empty pointer selects doc.
// Mapping-like documents that are not plain maps, such as the metadata store
// and items, take part by implementing jsonpointer.JSONPointable.
func Lookup(doc any, pointer string) (any, error) {
	p, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrPointer, pointer, err)
	}
	v, _, err := p.Get(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrPointer, pointer, err)
	}
	return v, nil
}
