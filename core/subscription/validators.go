package subscription

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tasmiapp/tasmi/core"
)

// InitValidators registers subscription-specific validators and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation("alltiers", allTiersValidation)
	core.RegisterCustomTranslation(validate, translator, "alltiers", "{0} must be a known subscription tier")
}

func allTiersValidation(fl validator.FieldLevel) bool {
	return Tier(fl.Field().String()).Valid()
}
