package config

import "git.home.luguber.info/inful/pagepipe/internal/engine"

// Metadata defaults, applied when a key is absent.
const (
	DefaultTimezone = "UTC"
	DefaultEncoding = "UTF-8"
	DefaultURL      = "http://localhost:8000/"
)

func applyDefaults(cfg *Config) {
	if cfg.Metadata == nil {
		cfg.Metadata = map[string]any{}
	}
	for key, value := range map[string]any{
		"timezone": DefaultTimezone,
		"encoding": DefaultEncoding,
		"url":      DefaultURL,
	} {
		if _, ok := cfg.Metadata[key]; !ok {
			cfg.Metadata[key] = value
		}
	}
	if cfg.Pipes == nil {
		cfg.Pipes = map[string]engine.Pipe{}
	}
}
