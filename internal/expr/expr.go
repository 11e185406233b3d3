// Package expr evaluates boolean conditions written as text/template
// pipelines, such as
//
//	eq (mod .item.value 2) 0
//	and (hasSuffix .item.source ".md") (not .item.draft)
//
// A condition holds when the pipeline's value is true by the rules of
// {{if}}: non-empty and not a zero value.
package expr

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/spf13/cast"

	"git.home.luguber.info/inful/pagepipe/internal/item"
)

const truth = "true"

// Condition is a compiled boolean expression.
type Condition struct {
	src  string
	tmpl *template.Template
}

// Compile parses src as a template pipeline.
func Compile(src string) (*Condition, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty condition")
	}
	tmpl, err := template.New("condition").
		Funcs(funcs).
		Option("missingkey=zero").
		Parse("{{if " + src + "}}" + truth + "{{end}}")
	if err != nil {
		return nil, fmt.Errorf("parse condition %q: %w", src, err)
	}
	return &Condition{src: src, tmpl: tmpl}, nil
}

// CompileAll compiles every source, stopping at the first failure.
func CompileAll(srcs []string) ([]*Condition, error) {
	out := make([]*Condition, 0, len(srcs))
	for _, src := range srcs {
		c, err := Compile(src)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// String returns the source of the condition.
func (c *Condition) String() string { return c.src }

// Eval evaluates the condition against data.
func (c *Condition) Eval(data any) (bool, error) {
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", c.src, err)
	}
	return buf.String() == truth, nil
}

// All reports whether every condition holds for data.
func All(conds []*Condition, data any) (bool, error) {
	for _, c := range conds {
		ok, err := c.Eval(data)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Data builds the evaluation data for an item: {item, metadata}.
func Data(it *item.Item, metadata map[string]any) map[string]any {
	return map[string]any{
		"item":     it.AsMap(),
		"metadata": metadata,
	}
}

var funcs = template.FuncMap{
	"mod": func(a, b any) (int64, error) {
		x, err := toInt(a)
		if err != nil {
			return 0, err
		}
		y, err := toInt(b)
		if err != nil {
			return 0, err
		}
		if y == 0 {
			return 0, fmt.Errorf("mod by zero")
		}
		return x % y, nil
	},
	"hasPrefix": func(s any, prefix string) bool { return strings.HasPrefix(toString(s), prefix) },
	"hasSuffix": func(s any, suffix string) bool { return strings.HasSuffix(toString(s), suffix) },
	"contains":  func(s any, sub string) bool { return strings.Contains(toString(s), sub) },
	"lower":     func(s any) string { return strings.ToLower(toString(s)) },
	"ext":       func(s any) string { return path.Ext(toString(s)) },
	"match": func(pattern string, s any) (bool, error) {
		return regexp.MatchString(pattern, toString(s))
	},
	"glob": func(pattern string, s any) (bool, error) {
		return path.Match(pattern, toString(s))
	},
	"has": func(m map[string]any, key string) bool {
		_, ok := m[key]
		return ok
	},
}

func toString(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

func toInt(v any) (int64, error) {
	if v == nil {
		return 0, errors.New("missing value is not an integer")
	}
	if f, err := cast.ToFloat64E(v); err == nil && f != math.Trunc(f) {
		return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
	}
	return n, nil
}
