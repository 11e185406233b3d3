package config

import (
	"errors"
	"io/fs"
	"os"

	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
)

const starter = `# pagepipe configuration
metadata:
  title: My Site
  url: http://localhost:8000/
  timezone: UTC
  encoding: UTF-8

pipes:
  compile:
    - name: source
      args:
        path: content
    - name: frontmatter
      when: ['eq (ext .item.source) ".md"']
    - name: markdown
      when: ['eq (ext .item.source) ".md"']
    - name: todatetime
    - name: prettyuri
    - name: render
      when: ['eq (ext .item.destination) ".html"']
    - name: sitemap
    - name: save
      args:
        to: _site
`

// Init writes a starter configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).Build()
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.FileSystemError("stat configuration").WithCause(err).
			WithContext("path", path).Build()
	}

	if err := os.WriteFile(path, []byte(starter), 0o644); err != nil { //nolint:gosec // configuration is not secret
		return ferrors.FileSystemError("write configuration").WithCause(err).
			WithContext("path", path).Build()
	}
	return nil
}
