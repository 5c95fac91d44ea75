package model

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Variable names follow the environment-variable convention so they can be
// referenced from templates without quoting.
var variableNameRegex = regexp.MustCompile(`^[A-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// error can only happen on an empty tag or nil fn
	_ = v.RegisterValidation("variable_name", func(fl validator.FieldLevel) bool {
		return variableNameRegex.MatchString(fl.Field().String())
	})
	return v
}

// Validate runs struct validation against any model type.
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// ValidVariableName reports whether name can be used as a variable name and,
// by extension, referenced from a template token.
func ValidVariableName(name string) bool {
	return variableNameRegex.MatchString(name)
}
