// Package validation checks records before they reach any store.
//
// Field errors are keyed by the JSON field name and carry English messages
// rendered through universal-translator, so the same map can be returned to
// API clients unchanged.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/recordbook/internal/models"
)

// FieldErrors maps a field name to a human-readable message.
type FieldErrors map[string]string

// Error is returned when a record fails validation.
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// NewError builds an *Error from a field map.
func NewError(fields FieldErrors) *Error {
	return &Error{Fields: fields}
}

// AsError unwraps err into *Error when it is one.
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// TypeMismatch reports a field whose JSON value is neither a string nor a
// number.
func TypeMismatch(field string) *Error {
	return NewError(FieldErrors{field: label(field) + " must be a string"})
}

var zipcodePattern = regexp.MustCompile(`^\d{6}$`)

// fieldLabels are the display names used in messages.
var fieldLabels = map[string]string{
	"name":       "Name",
	"phone":      "Phone",
	"email":      "Email",
	"address":    "Address",
	"state":      "State",
	"district":   "District",
	"city":       "City",
	"zipcode":    "Zipcode",
	"recordDate": "Record date",
}

var messages = map[string]string{
	"required":     "{0} is required",
	"min":          "{0} must be at least {1} characters long",
	"max":          "{0} cannot exceed {1} characters",
	"phone":        "{0} must be exactly 10 digits",
	"zipcode":      "{0} must be exactly 6 digits",
	"contactemail": "{0} must contain @ and . and be at least 6 characters long",
}

// Validator validates records. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New builds a Validator with the record rules registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	}))
	mustRegister(validate.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return IsValidZipcode(fl.Field().String())
	}))
	mustRegister(validate.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	}))

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")

	for tag, text := range messages {
		tag, text := tag, text
		mustRegister(validate.RegisterTranslation(tag, trans,
			func(t ut.Translator) error {
				return t.Add(tag, text, true)
			},
			func(t ut.Translator, fe validator.FieldError) string {
				msg, err := t.T(tag, label(fe.Field()), fe.Param())
				if err != nil {
					return fe.Error()
				}
				return msg
			},
		))
	}

	return &Validator{validate: validate, trans: trans}
}

// Record validates a normalized record. It returns nil, an *Error carrying
// one message per failing field, or an unexpected validator error.
func (v *Validator) Record(rec *models.Record) error {
	err := v.validate.Struct(rec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate record: %w", err)
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fe.Translate(v.trans)
	}
	return NewError(fields)
}

// IsValidPhone reports whether s holds exactly ten digits once every
// non-digit is removed.
func IsValidPhone(s string) bool {
	return len(models.PhoneDigits(s)) == 10
}

// IsValidZipcode reports whether s is a six digit Indian PIN code.
func IsValidZipcode(s string) bool {
	return zipcodePattern.MatchString(s)
}

// IsValidEmail applies the loose contact email rule: it must contain "@"
// and "." and be longer than five characters.
func IsValidEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".") && len(s) > 5
}

// ParseRecordDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date.
func ParseRecordDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func mustRegister(err error) {
	if err != nil {
		panic(fmt.Sprintf("validation: register rule: %v", err))
	}
}
