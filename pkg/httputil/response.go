package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
	"github.com/tusharag6/homestead-api/pkg/logger"
	"github.com/tusharag6/homestead-api/pkg/validator"
)

// Response is the JSON envelope returned by every endpoint. Success and
// failure share the same shape so clients can branch on Success alone.
type Response struct {
	Success    bool           `json:"success"`
	StatusCode int            `json:"statusCode"`
	Message    string         `json:"message,omitempty"`
	Data       any            `json:"data,omitempty"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a successful envelope carrying data and a human-readable message.
func WriteSuccess(w http.ResponseWriter, status int, data any, message string) {
	WriteJSON(w, status, Response{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// WriteFailure writes a failed envelope with an explicit status, code and message.
func WriteFailure(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Response{
		StatusCode: status,
		Message:    message,
		Error:      &ErrorResponse{Code: code, Message: message},
	})
}

// WriteError writes a standardized error response based on the error type.
// It prefers the request-scoped logger from context over the fallback logger.
// Server-side faults are logged; their details never reach the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logServerFault(r, l, err, appErr.Code)
		}
		WriteJSON(w, appErr.Status, Response{
			StatusCode: appErr.Status,
			Message:    appErr.Message,
			Error:      &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = "NOT_FOUND"
		message = "resource not found"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		code = "ALREADY_EXISTS"
		message = "resource already exists"
	case errors.Is(err, apperrors.ErrInvalidInput):
		code = "INVALID_INPUT"
		message = err.Error()
	case errors.Is(err, apperrors.ErrUnauthenticated):
		code = "UNAUTHENTICATED"
		message = "unauthorized request"
	case errors.Is(err, apperrors.ErrInvalidToken):
		code = "INVALID_TOKEN"
		message = "invalid or expired token"
	case errors.Is(err, apperrors.ErrMisconfigured):
		code = "MISCONFIGURED"
	}

	if status == http.StatusInternalServerError {
		logServerFault(r, l, err, code)
	}

	WriteJSON(w, status, Response{
		StatusCode: status,
		Message:    message,
		Error:      &ErrorResponse{Code: code, Message: message, RequestID: requestID},
	})
}

func logServerFault(r *http.Request, l *slog.Logger, err error, code string) {
	msg := "internal error"
	if errors.Is(err, apperrors.ErrMisconfigured) {
		msg = "server misconfiguration"
	}
	l.ErrorContext(r.Context(), msg,
		slog.String("code", code),
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// WriteValidationError writes a standardized validation error response.
// It handles ValidationError from the validator package and returns field-level errors.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			StatusCode: http.StatusBadRequest,
			Message:    "request validation failed",
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteFailure(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
}
