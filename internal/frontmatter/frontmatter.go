// Package frontmatter splits a metadata block off the top of a text
// document and decodes it.
//
// The block is fenced by a delimiter line ("---" for YAML, "+++" for TOML,
// ";;;" for JSON by default) both before and after it.
package frontmatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names a front matter syntax.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
	JSON Format = "json"
)

// Delimiter returns the conventional fence line of f.
func (f Format) Delimiter() string {
	switch f {
	case TOML:
		return "+++"
	case JSON:
		return ";;;"
	default:
		return "---"
	}
}

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Split separates the front matter fenced by delimiter from the body.
//
// If the document does not start with the delimiter line, had is false and
// body is the full input. LF and CRLF line endings are both accepted.
func Split(content []byte, delimiter string) (front []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if rest := content[start:]; bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + delimiter + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing fence on the last line has no trailing newline.
		if bytes.HasSuffix(content, []byte(nl+delimiter)) {
			return content[start : len(content)-len(delimiter)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse decodes front matter written in format into a map.
func Parse(format Format, front []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(front)) == 0 {
		return fields, nil
	}
	var err error
	switch format {
	case YAML:
		err = yaml.Unmarshal(front, &fields)
	case TOML:
		err = toml.Unmarshal(front, &fields)
	case JSON:
		err = json.Unmarshal(front, &fields)
	default:
		return nil, fmt.Errorf("unsupported front matter format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s front matter: %w", format, err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
