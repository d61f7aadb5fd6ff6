package handler

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/tabhome/tabhome/internal/database"
	"github.com/tabhome/tabhome/internal/optional"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags to gin's validator.
// optional.Value[string] fields are validated by their inner value; absent and null skip omitempty rules.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterCustomTypeFunc(optionalStringValue, optional.Value[string]{})
		err = v.RegisterValidation("search_template", validateSearchTemplate)
	})
	return err
}

func optionalStringValue(field reflect.Value) any {
	o, ok := field.Interface().(optional.Value[string])
	if !ok {
		return nil
	}
	if s, ok := o.Get(); ok {
		return s
	}
	return nil
}

// validateSearchTemplate requires the search query placeholder in a URL template.
func validateSearchTemplate(fl validator.FieldLevel) bool {
	return strings.Contains(fl.Field().String(), database.QueryPlaceholder)
}
