package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
)

// validatePipes checks that every step is a mapping with a string name and
// converts the steps to specs.
func validatePipes(raw map[string][]any) (map[string]engine.Pipe, error) {
	pipes := make(map[string]engine.Pipe, len(raw))
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if name == "" {
			return nil, errors.New("pipe with an empty name")
		}
		steps := raw[name]
		pipe := make(engine.Pipe, 0, len(steps))
		for i, step := range steps {
			spec, ok := step.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("pipes.%s[%d]: step must be a mapping, got %T", name, i, step)
			}
			if procName, ok := spec[engine.KeyName].(string); !ok || procName == "" {
				return nil, fmt.Errorf("pipes.%s[%d]: step needs a string %q", name, i, engine.KeyName)
			}
			pipe = append(pipe, spec)
		}
		pipes[name] = pipe
	}
	return pipes, nil
}
