package setoran

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tasmiapp/tasmi/core"
)

// InitValidators registers setoran-specific validators and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation("allkinds", allKindsValidation)
	_ = validate.RegisterValidation("allgrades", allGradesValidation)
	core.RegisterCustomTranslation(validate, translator, "allkinds", "{0} must be ziyadah or murajaah")
	core.RegisterCustomTranslation(validate, translator, "allgrades", "{0} must be a known grade")
}

func allKindsValidation(fl validator.FieldLevel) bool {
	return Kind(fl.Field().String()).Valid()
}

func allGradesValidation(fl validator.FieldLevel) bool {
	return Grade(fl.Field().String()).Valid()
}
