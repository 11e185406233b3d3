// Package params binds processor arguments to typed parameter structs.
//
// A processor declares its parameters as a struct. Each field tagged
// `param:"name"` is a parameter; field order is the positional order. Other
// tags refine a parameter:
//
//	fallback:"metadata:#/timezone"  reference used when the argument is absent
//	variadic:"true"                 collects the remaining positional arguments
//	validate:"omitempty,timezone"   go-playground/validator rules
//
// Parameters after a variadic one can only be passed by keyword.
package params

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
	"git.home.luguber.info/inful/pagepipe/internal/jsonref"
	"git.home.luguber.info/inful/pagepipe/internal/logfields"
)

const tagName = "param"

// Func is a processor that receives its arguments as a parameter struct.
type Func[P any] func(app *engine.Application, items item.Stream, p *P) (item.Stream, error)

// Defaulter is implemented by parameter structs that preset default values.
// Defaults runs before arguments are decoded into the struct.
type Defaulter interface {
	Defaults()
}

// Bind adapts fn to the engine's processor contract. It panics when P is not
// a struct with well-formed parameter tags.
func Bind[P any](fn Func[P]) engine.Processor {
	s, err := schemaFor(reflect.TypeFor[P]())
	if err != nil {
		panic(err)
	}
	return func(app *engine.Application, items item.Stream, args []any, kwargs map[string]any) (item.Stream, error) {
		bound, err := s.bind(args, kwargs)
		if err != nil {
			return nil, err
		}
		s.applyFallbacks(app, bound)

		p := new(P)
		if d, ok := any(p).(Defaulter); ok {
			d.Defaults()
		}
		if err := decode(bound, p); err != nil {
			return nil, err
		}
		if err := validateStruct(p); err != nil {
			return nil, err
		}
		return fn(app, items, p)
	}
}

type param struct {
	name     string
	fallback string
	variadic bool
}

type schema struct {
	params     []param
	positional []param
	variadic   *param
	known      map[string]bool
}

func schemaFor(t reflect.Type) (*schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("params: %s is not a struct", t)
	}
	s := &schema{known: map[string]bool{}}
	for f := range fieldsOf(t) {
		name, _, _ := strings.Cut(f.Tag.Get(tagName), ",")
		if name == "" || name == "-" {
			continue
		}
		if s.known[name] {
			return nil, fmt.Errorf("params: %s declares %q twice", t, name)
		}
		p := param{
			name:     name,
			fallback: f.Tag.Get("fallback"),
			variadic: f.Tag.Get("variadic") == "true",
		}
		if p.variadic {
			if s.variadic != nil {
				return nil, fmt.Errorf("params: %s declares more than one variadic parameter", t)
			}
			if f.Type.Kind() != reflect.Slice {
				return nil, fmt.Errorf("params: variadic parameter %q of %s must be a slice", name, t)
			}
			s.variadic = &p
		} else if s.variadic == nil {
			s.positional = append(s.positional, p)
		}
		s.known[name] = true
		s.params = append(s.params, p)
	}
	return s, nil
}

func fieldsOf(t reflect.Type) func(func(reflect.StructField) bool) {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() && !yield(f) {
				return
			}
		}
	}
}

// bind maps positional and keyword arguments onto parameter names.
func (s *schema) bind(args []any, kwargs map[string]any) (map[string]any, error) {
	bound := make(map[string]any, len(args)+len(kwargs))
	var rest []any
	for i, v := range args {
		switch {
		case i < len(s.positional):
			bound[s.positional[i].name] = v
		case s.variadic != nil:
			rest = append(rest, v)
		default:
			return nil, ferrors.ValidationError(fmt.Sprintf(
				"takes %d positional arguments but %d were given", len(s.positional), len(args))).Build()
		}
	}
	if rest != nil {
		bound[s.variadic.name] = rest
	}
	for k, v := range kwargs {
		if !s.known[k] {
			return nil, ferrors.ValidationError(fmt.Sprintf("got an unexpected keyword argument %q", k)).
				WithContext("field", k).Build()
		}
		if _, dup := bound[k]; dup {
			return nil, ferrors.ValidationError(fmt.Sprintf("got multiple values for argument %q", k)).
				WithContext("field", k).Build()
		}
		bound[k] = v
	}
	return bound, nil
}

// applyFallbacks fills absent parameters from their fallback references.
// A fallback that cannot be resolved leaves the parameter unset.
func (s *schema) applyFallbacks(app *engine.Application, bound map[string]any) {
	for _, p := range s.params {
		if _, ok := bound[p.name]; ok || p.fallback == "" {
			continue
		}
		v, err := app.Resolve(map[string]any{jsonref.RefKey: p.fallback}, false)
		if err != nil {
			app.Logger().Debug("Fallback not applied", slog.String("param", p.name), logfields.Error(err))
			continue
		}
		bound[p.name] = v
	}
}

func decode(bound map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		TagName:    tagName,
		ZeroFields: true,
		DecodeHook: scalarToSliceHook,
	})
	if err != nil {
		return ferrors.InternalError(err.Error()).Build()
	}
	if err := dec.Decode(bound); err != nil {
		return ferrors.ValidationError("invalid arguments").WithCause(err).Build()
	}
	return nil
}

// scalarToSliceHook lets a single value stand for a one-element list.
var scalarToSliceHook mapstructure.DecodeHookFuncType = func(from, to reflect.Type, data any) (any, error) {
	if data == nil || to.Kind() != reflect.Slice {
		return data, nil
	}
	if k := from.Kind(); k == reflect.Slice || k == reflect.Array {
		return data, nil
	}
	return []any{data}, nil
}
