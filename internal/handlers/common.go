// Package handlers provides the HTTP handlers for the todo API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"cursor-todo/pkg/api"
	appErrors "cursor-todo/pkg/errors"
)

const (
	labelValidation = "Validation Error"
	msgUnexpected   = "An unexpected error occurred"
)

// errorResponder maps application errors onto HTTP responses.
type errorResponder struct {
	production bool
	logger     *zap.Logger
}

// handleServiceError converts service errors to appropriate HTTP responses.
// Internal details are only echoed outside production.
func (e errorResponder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *appErrors.AppError
	errors.As(err, &appErr)

	switch appErrors.TypeOf(err) {
	case appErrors.ErrorTypeValidation:
		api.ErrorWithDetails(w, http.StatusBadRequest, labelValidation, appErr.Message, appErr.Details)
	case appErrors.ErrorTypeNotFound:
		api.Error(w, http.StatusNotFound, appErr.Message)
	default:
		e.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg := msgUnexpected
		if !e.production {
			msg = err.Error()
		}
		api.Error(w, http.StatusInternalServerError, msg)
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
