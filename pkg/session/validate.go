package session

import (
	goerrors "errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()
)

func validateRequest(v interface{}) error {
	err := validate.Struct(v)
	if err != nil {
		errs := err.(validator.ValidationErrors)
		return goerrors.Join(errs)
	}
	return nil
}
