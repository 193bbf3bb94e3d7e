package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json field names so clients can map errors to their inputs
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Warn("failed to encode JSON response", zap.Error(err))
		}
	}
}

// Error writes an error JSON response, using AppError status codes when available.
// Configuration and internal errors are logged in full and reach the client as a generic message.
func Error(w http.ResponseWriter, err error) {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		zap.L().Error("unhandled error", zap.Error(err))
		JSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "internal server error",
			"kind":  domain.KindInternal,
		})
		return
	}

	if !appErr.Public() {
		zap.L().Error("request failed", zap.String("kind", string(appErr.Kind)), zap.Error(appErr))
		JSON(w, appErr.Code, map[string]interface{}{
			"error": "internal server error",
			"kind":  appErr.Kind,
		})
		return
	}
	if appErr.Code >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("kind", string(appErr.Kind)), zap.Error(appErr))
	}

	body := make(map[string]interface{}, len(appErr.Details)+2)
	for k, v := range appErr.Details {
		body[k] = v
	}
	body["error"] = appErr.Message
	body["kind"] = appErr.Kind
	if appErr.Retryable() {
		w.Header().Set("Retry-After", "5")
	}
	JSON(w, appErr.Code, body)
}

// DecodeJSON decodes a JSON request body into v and validates it.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrBadRequest("invalid JSON body")
	}
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return domain.ErrValidation(fe.Field(), validationMessage(fe))
		}
		return domain.ErrBadRequest("invalid request")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "hexadecimal":
		return fmt.Sprintf("%s must be hexadecimal", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
