package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs `validate` tags on v and flattens the first failure
// into a short message suitable for a 400 response.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("%s is required", field)
		case "email":
			return fmt.Errorf("%s must be a valid email address", field)
		case "min":
			return fmt.Errorf("%s must be at least %s characters", field, fe.Param())
		case "max":
			return fmt.Errorf("%s must be at most %s characters", field, fe.Param())
		case "url", "http_url":
			return fmt.Errorf("%s must be a valid url", field)
		default:
			return fmt.Errorf("%s is invalid", field)
		}
	}
	return err
}
