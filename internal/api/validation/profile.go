package validation

import (
	"github.com/go-playground/validator/v10"

	"malt-scraper/pkg/utils"
)

// ValidateMaltProfile accepts only Malt profile URLs
func ValidateMaltProfile(fl validator.FieldLevel) bool {
	return utils.IsMaltProfileURL(fl.Field().String())
}

// RegisterProfileValidators registers all profile-related custom validators
func RegisterProfileValidators(v *validator.Validate) {
	v.RegisterValidation("malt_profile", ValidateMaltProfile)
}

// Validator adapts validator.Validate to echo.Validator
type Validator struct {
	validate *validator.Validate
}

// New returns a validator with the profile rules registered
func New() *Validator {
	v := validator.New()
	RegisterProfileValidators(v)
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
