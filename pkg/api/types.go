package api

import "time"

// Todo is the wire representation shared by the server and the client.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateTodoRequest represents the request to create a todo
type CreateTodoRequest struct {
	Title string `json:"title"`
}

// TrackEventRequest is a client telemetry event
type TrackEventRequest struct {
	Event      string                 `json:"event" validate:"required,max=128"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// TrackEventResponse acknowledges a tracked event
type TrackEventResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}
