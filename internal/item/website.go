package item

import (
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
)

// Keys every web-site item must carry at construction.
const (
	KeyDestination = "destination"
	KeyBaseURL     = "baseurl"
)

var directoryIndexes = []string{"index.html", "index.htm"}

// MissingPropertyError lists required keys absent at construction, sorted.
type MissingPropertyError struct {
	Kind string
	Keys []string
}

func (e *MissingPropertyError) Error() string {
	quoted := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		quoted[i] = "'" + k + "'"
	}
	return fmt.Sprintf("%s is missing some required properties: %s", e.Kind, strings.Join(quoted, ", "))
}

// NewWebSite creates an item that represents an output page of a site. It
// computes "url" and "absurl" from the required "destination" and "baseurl".
func NewWebSite(fields map[string]any) (*Item, error) {
	var missing []string
	for _, k := range []string{KeyBaseURL, KeyDestination} {
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, &MissingPropertyError{Kind: "WebSiteItem", Keys: missing}
	}
	return newWithProperties(fields, webSiteProperties{}), nil
}

type webSiteProperties struct{}

func (webSiteProperties) Names() []string { return []string{"absurl", "url"} }

func (webSiteProperties) Compute(it *Item, name string) (any, bool) {
	switch name {
	case "url":
		return webSiteURL(it)
	case "absurl":
		u, ok := webSiteURL(it)
		if !ok {
			return nil, false
		}
		base, _ := it.GetString(KeyBaseURL)
		return strings.TrimRight(base, "/") + u, true
	}
	return nil, false
}

func webSiteURL(it *Item) (string, bool) {
	raw, ok := it.fields[KeyDestination]
	if !ok {
		return "", false
	}
	dest := strings.TrimPrefix(path.Clean(strings.ReplaceAll(fmt.Sprint(raw), "\\", "/")), "/")

	isDir := false
	if slices.Contains(directoryIndexes, path.Base(dest)) {
		dest = path.Dir(dest)
		isDir = true
	}
	if dest == "." {
		dest = ""
	}

	escaped := (&url.URL{Path: dest}).EscapedPath()
	if isDir && escaped != "" {
		escaped += "/"
	}
	return "/" + escaped, true
}
