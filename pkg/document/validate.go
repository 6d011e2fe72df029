package document

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/suratkita/suratkita/pkg/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func headerValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks that the header carries every field a letter cannot be
// issued without. The error lists all missing fields at once.
func (d *Document) Validate() error {
	return ValidateHeader(&d.Header)
}

// ValidateHeader checks the required header fields.
func ValidateHeader(h *Header) error {
	err := headerValidator().Struct(h)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInternal, err, "validate header")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return errors.New(errors.ErrCodeMissingField, "missing required fields: %s", strings.Join(fields, ", "))
}

// MissingFields returns the json names of the empty required header fields.
func MissingFields(err error) []string {
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != errors.ErrCodeMissingField {
		return nil
	}
	_, list, ok := strings.Cut(e.Message, ": ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}
