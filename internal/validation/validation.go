// Package validation configures the shared go-playground validator with
// the gallery's custom tags.
package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	loginPattern     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{1,31}$`)
	groupNamePattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} _-]{0,63}$`)
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// New returns a validator with the "login", "groupname" and "bcryptlen" tags registered.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("login", func(fl validator.FieldLevel) bool {
		return IsLogin(fl.Field().String())
	})
	_ = v.RegisterValidation("groupname", func(fl validator.FieldLevel) bool {
		return IsGroupName(fl.Field().String())
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	return v
}

// IsLogin reports whether s is an acceptable account login.
func IsLogin(s string) bool {
	return loginPattern.MatchString(s)
}

// IsGroupName reports whether s is an acceptable group name.
func IsGroupName(s string) bool {
	return groupNamePattern.MatchString(s)
}

// Messages turns validator errors into one readable line per failed field.
func Messages(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "login":
		return field + " must start with a letter and contain 2-32 letters, digits or underscores"
	case "groupname":
		return field + " contains invalid characters"
	case "email":
		return field + " must be a valid email address"
	case "eqfield":
		return field + " does not match " + fe.Param()
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "bcryptlen":
		return field + " must be at most 72 bytes long"
	case "timezone":
		return field + " is not a known time zone"
	default:
		return field + " is invalid"
	}
}
