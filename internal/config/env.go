package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
)

// envFiles are loaded in order. godotenv never overrides a variable that
// is already set, so earlier files take precedence over later ones.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles(dir string) error {
	var found []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		found = append(found, path)
	}
	if len(found) == 0 {
		return nil
	}
	if err := godotenv.Load(found...); err != nil {
		return ferrors.ConfigError("load environment file").WithCause(err).
			WithContext("path", dir).Build()
	}
	return nil
}
