package params

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // time zone checks must not depend on the host's zoneinfo

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"

	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get(tagName), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		for tag, fn := range map[string]validator.Func{
			"encoding": func(fl validator.FieldLevel) bool { return ValidEncoding(fl.Field().String()) },
			"timezone": func(fl validator.FieldLevel) bool { return ValidTimezone(fl.Field().String()) },
			"path":     func(fl validator.FieldLevel) bool { return ValidPath(fl.Field().String()) },
			"regexp": func(fl validator.FieldLevel) bool {
				_, err := regexp.Compile(fl.Field().String())
				return err == nil
			},
		} {
			if err := validate.RegisterValidation(tag, fn); err != nil {
				panic(err)
			}
		}
	})
	return validate
}

// Encoding looks up a character encoding by its WHATWG or IANA name.
func Encoding(name string) (encoding.Encoding, error) {
	if e, err := htmlindex.Get(name); err == nil {
		return e, nil
	}
	e, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return e, nil
}

// ValidEncoding reports whether name is a known character encoding.
func ValidEncoding(name string) bool {
	_, err := Encoding(name)
	return err == nil
}

// ValidTimezone reports whether name is a resolvable IANA time zone.
// "Local" names the host's zone, not an IANA one, and is rejected.
func ValidTimezone(name string) bool {
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// ValidPath reports whether p is a syntactically usable filesystem path.
func ValidPath(p string) bool {
	return p != "" && !strings.ContainsRune(p, 0)
}

func validateStruct(p any) error {
	err := getValidator().Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ferrors.ValidationError("invalid arguments").WithCause(err).Build()
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldPath(fe)+": "+describe(fe))
	}
	return ferrors.ValidationError(strings.Join(messages, "; ")).
		WithContext("field", fieldPath(verrs[0])).Build()
}

// fieldPath is the dotted path to the field, without the struct name.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("%v is not one of: %s", fe.Value(), fe.Param())
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "encoding":
		return fmt.Sprintf("%q is not a known encoding", fe.Value())
	case "timezone":
		return fmt.Sprintf("%q is not a known time zone", fe.Value())
	case "path":
		return fmt.Sprintf("%q is not a valid path", fe.Value())
	case "regexp":
		return fmt.Sprintf("%q is not a valid regular expression", fe.Value())
	default:
		return "failed " + fe.Tag() + " check"
	}
}
