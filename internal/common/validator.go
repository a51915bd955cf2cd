package common

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GenericEchoValidator validates bound request structs with `validate` tags.
// Field names in errors come from the `form` tag, matching what the page sent.
type GenericEchoValidator struct {
	once      sync.Once
	Validator *validator.Validate
}

func (gv *GenericEchoValidator) init() {
	gv.once.Do(func() {
		if gv.Validator != nil {
			return
		}
		gv.Validator = validator.New()
		gv.Validator.RegisterTagNameFunc(func(field reflect.StructField) string {
			if name := field.Tag.Get("form"); name != "" && name != "-" {
				return name
			}
			return field.Name
		})
	})
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	gv.init()
	err := gv.Validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("received invalid request: %s", strings.Join(fields, ", ")))
	}
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request: %v", err))
}
