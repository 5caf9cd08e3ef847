// Package validation wraps go-playground/validator with the request rules
// shared by the handlers.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var cardUIDPattern = regexp.MustCompile(`^[0-9A-F]{8,16}$`)

// New returns a validator that also knows the "carduid" tag: upper-case hex,
// 8 to 16 characters.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("carduid", func(fl validator.FieldLevel) bool {
		return cardUIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// Fields maps each failed field to the tag that rejected it. Nil when err is
// not a validation error.
func Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		out[fe.Field()] = tag
	}
	return out
}
