package processors

import (
	"fmt"
	"regexp"
	"time"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
}

type todatetimeParams struct {
	Keys      []string `param:"todatetime" validate:"min=1,dive,required"`
	ParseArea string   `param:"parsearea" validate:"omitempty,regexp"`
	Timezone  string   `param:"timezone" fallback:"metadata:#/timezone" validate:"timezone"`
}

func (p *todatetimeParams) Defaults() {
	p.Keys = []string{keyPublished}
	p.Timezone = "UTC"
}

// todatetime parses string values of Keys into times. With ParseArea only
// the part of the value the expression matches (its first group, if any) is
// parsed. Values without a zone are read in Timezone.
func todatetime(_ *engine.Application, items item.Stream, p *todatetimeParams) (item.Stream, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, invalidArgument(err.Error())
	}
	var area *regexp.Regexp
	if p.ParseArea != "" {
		area = regexp.MustCompile(p.ParseArea)
	}

	return item.Each(items, func(it *item.Item) error {
		for _, key := range p.Keys {
			raw, ok := it.GetString(key)
			if !ok {
				continue
			}
			if area != nil {
				m := area.FindStringSubmatch(raw)
				if m == nil {
					continue
				}
				raw = m[0]
				if len(m) > 1 {
					raw = m[1]
				}
			}
			t, err := parseTime(raw, loc)
			if err != nil {
				return itemError(err, "todatetime "+key, it)
			}
			it.Set(key, t)
		}
		return nil
	}), nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
