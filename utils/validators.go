package utils

import (
	"fmt"
	"regexp"

	"github.com/escape-finder/api-go/location"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// RegisterValidators adds the usstate and slug tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("utils.RegisterValidators: unexpected validator engine")
	}
	return registerOn(v)
}

func registerOn(v *validator.Validate) error {
	if err := v.RegisterValidation("usstate", func(fl validator.FieldLevel) bool {
		_, ok := location.NormalizeState(fl.Field().String())
		return ok
	}); err != nil {
		return fmt.Errorf("utils.RegisterValidators: %w", err)
	}
	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("utils.RegisterValidators: %w", err)
	}
	return nil
}

// ValidationMessage flattens validator errors into one readable line.
func ValidationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "usstate":
		return fmt.Sprintf("%s must be a US state", fe.Field())
	case "slug":
		return fmt.Sprintf("%s must be a lowercase slug", fe.Field())
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
