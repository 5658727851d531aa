package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/leave-management/internal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
	rules  []errors.ValidationError
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
		rules:  make([]errors.ValidationError, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

// Rule records a cross-field violation when ok is false.
func (v *ValidationBuilder) Rule(ok bool, field, message string, code errors.ErrorCode) *ValidationBuilder {
	if !ok {
		v.rules = append(v.rules, errors.ValidationError{Field: field, Message: message, Code: string(code)})
	}
	return v
}

func (fv *FieldValidator) fail(message string, code errors.ErrorCode) *errors.AppError {
	return errors.NewValidationFieldError(fv.FieldName, message, code)
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		missing := false
		switch v := value.(type) {
		case nil:
			missing = true
		case string:
			missing = strings.TrimSpace(v) == ""
		case *string:
			missing = v == nil || strings.TrimSpace(*v) == ""
		case int64:
			missing = v == 0
		case *int:
			missing = v == nil
		case *decimal.Decimal:
			missing = v == nil
		case time.Time:
			missing = v.IsZero()
		}
		if missing {
			return fv.fail(fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && len(v) > max {
			return fv.fail(fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

// PositiveInt applies to *int; nil passes.
func (fv *FieldValidator) PositiveInt() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(*int); ok && v != nil && *v <= 0 {
			return fv.fail(fmt.Sprintf("%s must be greater than 0", fv.FieldName), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func decimalValue(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	}
	return decimal.Zero, false
}

func (fv *FieldValidator) PositiveDecimal() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if d, ok := decimalValue(value); ok && !d.IsPositive() {
			return fv.fail(fmt.Sprintf("%s must be greater than 0", fv.FieldName), errors.ErrCodeInvalidAmount)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) NonNegativeDecimal() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if d, ok := decimalValue(value); ok && d.IsNegative() {
			return fv.fail(fmt.Sprintf("%s must not be negative", fv.FieldName), errors.ErrCodeInvalidAmount)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxDecimal(max decimal.Decimal) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if d, ok := decimalValue(value); ok && d.GreaterThan(max) {
			return fv.fail(fmt.Sprintf("%s must not exceed %s", fv.FieldName, max.StringFixed(2)), errors.ErrCodeInvalidAmount)
		}
		return nil
	})
	return fv
}

// Digits bounds the integer and fractional digit counts of a decimal.
func (fv *FieldValidator) Digits(integer, fraction int32) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		d, ok := decimalValue(value)
		if !ok {
			return nil
		}
		if d.Exponent() < -fraction && !d.Equal(d.Truncate(fraction)) {
			return fv.fail(fmt.Sprintf("%s must have at most %d decimal places", fv.FieldName, fraction), errors.ErrCodeInvalidAmount)
		}
		limit := decimal.New(1, integer)
		if d.Abs().GreaterThanOrEqual(limit) {
			return fv.fail(fmt.Sprintf("%s must have at most %d integer digits", fv.FieldName, integer), errors.ErrCodeInvalidAmount)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) NotAfter(limit time.Time) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		var t time.Time
		switch v := value.(type) {
		case time.Time:
			t = v
		case *time.Time:
			if v == nil {
				return nil
			}
			t = *v
		default:
			return nil
		}
		if t.After(limit) {
			return fv.fail(fmt.Sprintf("%s cannot be in the future", fv.FieldName), errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
				continue
			}
			validationErrors = append(validationErrors, errors.ValidationError{
				Field:   field.FieldName,
				Message: appErr.Message,
				Code:    string(appErr.Code),
			})
		}
	}
	validationErrors = append(validationErrors, v.rules...)

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}
