package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vietd88/grubberbot/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their json names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON request body into v and checks its validate tags. Bad input
// comes back as a *model.ValidationError.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewValidationError(fmt.Sprintf("error parsing body: %v", err))
	}

	err := validate.StructCtx(r.Context(), v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("error validating body: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fieldProblem(fe))
	}
	return model.NewValidationError(problems...)
}

func fieldProblem(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("`%s` is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("`%s` must be one of %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("`%s` needs at least %s entries", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("`%s` must be at most %s characters", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("`%s` must be a URL", fe.Field())
	}
	return fmt.Sprintf("`%s` failed the %s check", fe.Field(), fe.Tag())
}
