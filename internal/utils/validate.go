// Package utils has the input helpers shared by services: sanitizing,
// validation, password hashing and access tokens.
package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/iliyamo/course-portal/internal/apperr"
	"github.com/iliyamo/course-portal/internal/model"
)

const dateTag = "ymd"

// Validator checks request structs with go-playground/validator and turns
// failures into apperr validation errors with one message per field.  It
// satisfies echo.Validator.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator registers the English translations, the custom "ymd" date
// tag and the friendlier messages used by the API.
func NewValidator() *Validator {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(dateTag, func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	})

	registerTranslation(v, trans, "required", "missing required field: {0}")
	registerTranslation(v, trans, "email", "{0} must be a valid email address")
	registerTranslation(v, trans, "url", "{0} must be a valid URL")
	registerTranslation(v, trans, dateTag, "{0} must be a date in YYYY-MM-DD format")

	return &Validator{validate: v, translator: trans}
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fieldName(fe))
			return s
		},
	)
}

// fieldName reports "files[1]" style names for slice elements.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Validate checks i's struct tags and reports the first failure as an
// *apperr.Error carrying every field message.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(err.Error())
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fieldName(fe), Message: fe.Translate(v.translator)})
	}
	return apperr.Validation(fields[0].Message, fields...)
}

// IsEmail reports whether s looks like an email address.
func (v *Validator) IsEmail(s string) bool {
	return v.validate.Var(s, "required,email") == nil
}

// IsURL reports whether s is an absolute URL with a scheme.
func (v *Validator) IsURL(s string) bool {
	return v.validate.Var(s, "required,url") == nil
}

var defaultValidator = NewValidator()

// DefaultValidator returns the shared validator instance.
func DefaultValidator() *Validator { return defaultValidator }
