// Package api provides the HTTP wire types and response helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// Success sends a JSON response. A nil data writes headers only.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	if data == nil {
		w.WriteHeader(statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// Error sends an error response using the status text as the error label.
func Error(w http.ResponseWriter, statusCode int, message string) {
	ErrorWithDetails(w, statusCode, http.StatusText(statusCode), message, nil)
}

// ErrorWithDetails sends an error response with an explicit label and field details.
func ErrorWithDetails(w http.ResponseWriter, statusCode int, label, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   label,
		Message: message,
		Details: details,
	})
}
