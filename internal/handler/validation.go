package handler

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"flowfix/internal/service"
)

// RegisterValidators adds the task vocabulary to gin's validator and makes
// field errors report json names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("stage", func(fl validator.FieldLevel) bool {
		_, err := service.NormalizeStage(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		_, err := service.NormalizePriority(fl.Field().String())
		return err == nil
	})
}
