package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Validator returns the shared validator instance. Field names in errors use json tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// DecodeAndValidate reads a JSON body into dst and runs struct validation.
// Errors are returned as *AppError with code BAD_REQUEST and per-field details.
func DecodeAndValidate(r *http.Request, dst any) error {
	if r.Body == nil {
		return &AppError{Code: "BAD_REQUEST", Message: "request body is required", HTTPStatus: http.StatusBadRequest}
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return &AppError{Code: "PAYLOAD_TOO_LARGE", Message: "request entity too large", HTTPStatus: http.StatusRequestEntityTooLarge, Err: err}
		}
		if errors.Is(err, io.EOF) {
			return &AppError{Code: "BAD_REQUEST", Message: "request body is required", HTTPStatus: http.StatusBadRequest, Err: err}
		}
		return &AppError{Code: "BAD_REQUEST", Message: "invalid JSON payload", HTTPStatus: http.StatusBadRequest, Err: err}
	}
	return ValidateStruct(dst)
}

// ValidateStruct validates v and converts validator errors to an AppError.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &AppError{Code: "BAD_REQUEST", Message: "invalid payload", HTTPStatus: http.StatusBadRequest, Err: err}
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describeFieldError(fe)
	}
	return &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "payload failed validation",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        fmt.Errorf("%w: %v", ErrInvalidInput, err),
		Details:    details,
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid", "uuid4":
		return "must be a UUID"
	case "slug":
		return "must contain lowercase letters, digits and dashes"
	default:
		return "failed " + fe.Tag()
	}
}
