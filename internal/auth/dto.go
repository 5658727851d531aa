package auth

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

var validate = validator.New()

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func emailAddress(value interface{}) *internal.AppError {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if err := validate.Var(s, "email"); err != nil {
		return internal.NewValidationFieldError("email", "email must be a valid address", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", strings.TrimSpace(d.Email)).Required().Custom(emailAddress)
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d RefreshTokenDTO) Validate() error {
	if strings.TrimSpace(d.RefreshToken) == "" {
		return internal.NewValidationFieldError("refresh_token", "refresh_token is required", internal.ErrCodeValidationFailed)
	}
	return nil
}
