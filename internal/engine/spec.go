package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
)

// Reserved processor spec keys.
const (
	KeyName = "name"
	KeyArgs = "args"
)

// Pipe is an ordered list of processor specs.
type Pipe []map[string]any

// Names returns the processor name of each step, rendering wrapped steps as
// wrapper(inner). Steps that cannot be unpacked render as "?".
func (p Pipe) Names(isWrapper func(string) bool) []string {
	out := make([]string, 0, len(p))
	for _, spec := range p {
		name, args, _, err := Unpack(spec, isWrapper)
		if err != nil {
			out = append(out, "?")
			continue
		}
		if len(args) > 0 {
			if inner, ok := args[0].(map[string]any); ok && isWrapper(name) {
				if innerName, ok := inner[KeyName].(string); ok {
					name = name + "(" + innerName + ")"
				}
			}
		}
		out = append(out, name)
	}
	return out
}

// Unpack turns a processor spec into a processor name and its arguments.
//
// A spec may carry at most one key besides "name" and "args", and that key
// must name a wrapper. The wrapper is then called instead, with the wrapped
// spec prepended to its positional arguments and its own argument bag taken
// from the value under that key.
func Unpack(spec map[string]any, isWrapper func(string) bool) (string, []any, map[string]any, error) {
	rawName, ok := spec[KeyName]
	if !ok {
		return "", nil, nil, ferrors.ConfigError("processor spec has no name").Build()
	}
	name, ok := rawName.(string)
	if !ok || name == "" {
		return "", nil, nil, ferrors.ConfigError(fmt.Sprintf("processor name must be a non-empty string, got %v", rawName)).Build()
	}

	args, kwargs, err := splitArgs(spec[KeyArgs])
	if err != nil {
		return "", nil, nil, ferrors.ConfigError(fmt.Sprintf("%s: %v", name, err)).
			WithContext("processor", name).Build()
	}

	var extra []string
	for k := range maps.Keys(spec) {
		if k != KeyName && k != KeyArgs {
			extra = append(extra, k)
		}
	}
	switch len(extra) {
	case 0:
		return name, args, kwargs, nil
	case 1:
	default:
		slices.Sort(extra)
		return "", nil, nil, ferrors.ConfigError(fmt.Sprintf(
			"ambiguous processor spec for %s: more than one wrapper key (%s)", name, strings.Join(extra, ", "))).
			WithContext("processor", name).Build()
	}

	wrapper := extra[0]
	if !isWrapper(wrapper) {
		return "", nil, nil, ferrors.ConfigError(fmt.Sprintf("%s: %q is not a processor wrapper", name, wrapper)).
			WithContext("processor", name).WithContext("wrapper", wrapper).Build()
	}
	wrapperArgs, wrapperKwargs, err := splitArgs(spec[wrapper])
	if err != nil {
		return "", nil, nil, ferrors.ConfigError(fmt.Sprintf("%s: %v", wrapper, err)).
			WithContext("wrapper", wrapper).Build()
	}

	inner := map[string]any{KeyName: name}
	if a, ok := spec[KeyArgs]; ok {
		inner[KeyArgs] = a
	}
	return wrapper, append([]any{inner}, wrapperArgs...), wrapperKwargs, nil
}

// splitArgs interprets an argument bag: a sequence is positional, a mapping
// is keyword arguments.
func splitArgs(bag any) ([]any, map[string]any, error) {
	switch v := bag.(type) {
	case nil:
		return nil, nil, nil
	case []any:
		return v, nil, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil, nil
	case map[string]any:
		return nil, v, nil
	default:
		return nil, nil, fmt.Errorf("arguments must be a sequence or a mapping, got %T", bag)
	}
}
