// Package config loads pagepipe configuration files.
//
// A configuration has two top-level keys: metadata, the initial application
// metadata that "$ref" references resolve against, and pipes, a mapping of
// pipe names to lists of processor specs.
//
//	metadata:
//	  url: https://example.com/
//	pipes:
//	  compile:
//	    - name: source
//	      args: {path: content}
//	    - name: save
//
// "${VAR}" references are expanded from the environment before parsing.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "pagepipe.yml"

// Config is a loaded configuration.
type Config struct {
	// Path is the file the configuration was read from.
	Path     string
	Metadata map[string]any
	Pipes    map[string]engine.Pipe
}

// document is the on-disk shape. Steps stay untyped until validated.
type document struct {
	Metadata map[string]any   `yaml:"metadata"`
	Pipes    map[string][]any `yaml:"pipes"`
}

// Load reads the configuration at path. Environment files next to it are
// loaded first; variables already set in the process win.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(filepath.Dir(path)); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ferrors.NotFoundError("configuration file not found").
			WithContext("path", path).Build()
	}
	if err != nil {
		return nil, ferrors.FileSystemError("read configuration").WithCause(err).
			WithContext("path", path).Build()
	}
	return Parse(path, data)
}

// Parse decodes a configuration document. path is only used for messages
// and the Path field.
func Parse(path string, data []byte) (*Config, error) {
	var doc document
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &doc); err != nil {
		return nil, ferrors.ConfigError("invalid configuration").WithCause(err).
			WithContext("path", path).Build()
	}

	pipes, err := validatePipes(doc.Pipes)
	if err != nil {
		return nil, ferrors.ConfigError("invalid configuration").WithCause(err).
			WithContext("path", path).Build()
	}

	cfg := &Config{Path: path, Metadata: doc.Metadata, Pipes: pipes}
	applyDefaults(cfg)
	return cfg, nil
}

// PipeNames returns the configured pipe names, sorted.
func (c *Config) PipeNames() []string {
	return slices.Sorted(maps.Keys(c.Pipes))
}

// Configure registers every configured pipe with app.
func (c *Config) Configure(app *engine.Application) {
	for _, name := range c.PipeNames() {
		app.AddPipe(name, c.Pipes[name])
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("Config(%s, %d pipes)", c.Path, len(c.Pipes))
}
