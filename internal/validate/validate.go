// package validate checks user input before it reaches the auth service
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/desertthunder/learnx/internal/shared"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldError is a translated failure for one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects every field failure of a form.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator wraps go-playground validation with English messages keyed by json field names.
type Validator struct {
	core  *validator.Validate
	trans ut.Translator
}

// New creates a Validator.
func New() *Validator {
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")

	core := validator.New(validator.WithRequiredStructEnabled())
	_ = en_translations.RegisterDefaultTranslations(core, trans)
	_ = core.RegisterTranslation("eqfield", trans,
		func(ut ut.Translator) error {
			return ut.Add("eqfield", "passwords do not match", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("eqfield")
			return msg
		},
	)
	core.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{core: core, trans: trans}
}

// Struct validates s and returns a validation [shared.AuthError] wrapping [Errors] on failure.
func (v *Validator) Struct(s any) error {
	err := v.core.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.NewAuthError(shared.KindValidation, err.Error(), err)
	}

	fields := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fe.Translate(v.trans)})
	}
	return shared.NewAuthError(shared.KindValidation, fields.Error(), fields)
}

// Fields extracts the per-field failures from an error returned by [Validator.Struct].
func Fields(err error) Errors {
	var fields Errors
	if errors.As(err, &fields) {
		return fields
	}
	return nil
}
