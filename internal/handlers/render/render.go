package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Machine readable error kinds carried in the "error" field of every
// non-2xx body
const (
	ErrTypeValidation = "validation_failed"
	ErrTypeDecoding   = "decoding_failed"
	ErrTypeService    = "service_error"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report errors under the json field name, not the Go struct field
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSON renders data with status 200
func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, data, http.StatusOK)
}

// ServiceError renders a message a human may be shown as is
func ServiceError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, ErrorResponse{Error: ErrTypeService, Message: message}, code)
}

// BindAndValidate decodes the JSON request body into T and validates it
// using struct tags. On failure the error response is already written, the
// caller only has to return.
func BindAndValidate[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		decodeError(w, err)
		return value, err
	}

	if err := validate.Struct(value); err != nil {
		// Struct(T) may only fail with ValidationErrors here
		validationErrors(w, err.(validator.ValidationErrors))
		return value, err
	}

	return value, nil
}

func decodeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{Error: ErrTypeDecoding}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		response.Message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	default:
		response.Message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	writeJSON(w, response, http.StatusBadRequest)
}

func validationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		Error:   ErrTypeValidation,
		Message: "Request validation failed",
		Fields:  make(map[string]string, len(errs)),
	}

	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	writeJSON(w, response, http.StatusBadRequest)
}

// writeJSON encodes to a buffer first, so an encoding failure can still
// change the status code
func writeJSON(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}

	if err := json.NewEncoder(buf).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
