// internal/app/system/inputval/inputval.go
package inputval

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// mobileRe accepts 10 to 15 digits with an optional leading "+".
var mobileRe = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// familyCodeRe matches generated family codes.
var familyCodeRe = regexp.MustCompile(`^[A-Z0-9]{7}$`)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their label (or json name) instead of the Go name.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		// Both tags check the value as the handlers will store it, so
		// "+91 98765-43210" and " ab12cd3" pass.
		_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return IsValidMobile(normalize.MobileNumber(fl.Field().String()))
		})
		_ = v.RegisterValidation("familycode", func(fl validator.FieldLevel) bool {
			return IsValidFamilyCode(normalize.FamilyCode(fl.Field().String()))
		})
		validate = v
	})
	return validate
}

// IsValidMobile reports whether s looks like a normalized mobile number.
func IsValidMobile(s string) bool {
	return mobileRe.MatchString(s)
}

// IsValidFamilyCode reports whether s has the shape of a family code.
func IsValidFamilyCode(s string) bool {
	return familyCodeRe.MatchString(s)
}

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string
	Message string
}

// Result collects validation failures in field order.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "" when valid.
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// Err returns the result as an apperr Invalid error, or nil when valid.
func (r Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return apperr.Invalid(r.First())
}

// Validate checks s against its `validate` struct tags.
func Validate(s any) Result {
	err := get().Struct(s)
	if err == nil {
		return Result{}
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return Result{Errors: []FieldError{{Message: err.Error()}}}
	}

	out := Result{Errors: make([]FieldError, 0, len(ves))}
	for _, fe := range ves {
		out.Errors = append(out.Errors, FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", f, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", f, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters.", f, fe.Param())
	case "numeric":
		return f + " must contain only digits."
	case "email":
		return f + " must be a valid email address."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", f, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "mobile":
		return f + " must be a valid mobile number."
	case "familycode":
		return f + " must be a valid family code."
	default:
		return f + " is invalid."
	}
}

// DecodeJSON reads at most maxBytes of JSON from r into dst and validates
// it. Unknown fields are rejected. Failures come back as apperr Invalid.
func DecodeJSON(r *http.Request, maxBytes int64, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("request body is required")
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperr.Invalid("request body too large")
		}
		return apperr.Invalid("malformed JSON: " + err.Error())
	}
	if dec.More() {
		return apperr.Invalid("request body must contain a single JSON object")
	}
	return Validate(dst).Err()
}
