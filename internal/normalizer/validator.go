package normalizer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"ttmusic/internal/models"
)

// Validation errors.
var (
	ErrRecordValidation = errors.New("record validation failed")
	ErrNotObject        = errors.New("record is not a JSON object")
	ErrNilItem          = errors.New("nil music item")
	ErrRequiredField    = errors.New("required field missing or invalid")
)

// ValidationError describes why a single record was rejected. It matches both
// ErrRecordValidation and the underlying cause under errors.Is.
type ValidationError struct {
	Err   error
	Field string
	Index int
}

func (e *ValidationError) Error() string {
	var sb strings.Builder

	sb.WriteString(ErrRecordValidation.Error())

	if e.Index >= 0 {
		fmt.Fprintf(&sb, " at index %d", e.Index)
	}

	if e.Field != "" {
		fmt.Fprintf(&sb, " (field %s)", e.Field)
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRecordValidation}
	}

	return []error{ErrRecordValidation, e.Err}
}

// Validator checks the required fields of a normalized item.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so errors line up with the output schema.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{validate: v}
}

// Validate returns a *ValidationError for the first failing field.
func (v *Validator) Validate(item *models.MusicItem) error {
	if item == nil {
		return &ValidationError{Index: -1, Err: ErrNilItem}
	}

	err := v.validate.Struct(item)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]

		return &ValidationError{
			Index: -1,
			Field: fe.Field(),
			Err:   fmt.Errorf("%w: failed %q check", ErrRequiredField, fe.Tag()),
		}
	}

	return &ValidationError{Index: -1, Err: err}
}

// AsRecord turns one element of a decoded source payload into a RawRecord.
func AsRecord(item any) (models.RawRecord, error) {
	obj, ok := asObject(item)
	if !ok {
		return nil, &ValidationError{Index: -1, Err: fmt.Errorf("%w: got %s", ErrNotObject, describe(item))}
	}

	return models.RawRecord(obj), nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		if _, ok := toInt64(v); ok {
			return "number"
		}

		return fmt.Sprintf("%T", v)
	}
}
