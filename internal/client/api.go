package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"cursor-todo/pkg/api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultBaseURL is where the API listens in local development.
const DefaultBaseURL = "http://localhost:4003"

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API request failed: %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("API request failed: %d %s", e.StatusCode, e.Status)
}

// APIClient talks to the todo API over HTTP.
type APIClient struct {
	baseURL string
	http    *http.Client
	tracer  *Tracer
}

// APIClientOption configures an APIClient.
type APIClientOption func(*APIClient)

// WithHTTPClient replaces the default client, which times out after 10s.
func WithHTTPClient(c *http.Client) APIClientOption {
	return func(a *APIClient) { a.http = c }
}

func NewAPIClient(baseURL string, tracer *Tracer, opts ...APIClientOption) *APIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		tracer:  tracer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *APIClient) ListTodos(ctx context.Context) ([]api.Todo, error) {
	var out []api.Todo
	if err := c.request(ctx, http.MethodGet, "/todos", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []api.Todo{}
	}
	return out, nil
}

func (c *APIClient) CreateTodo(ctx context.Context, title string) (api.Todo, error) {
	var out api.Todo
	err := c.request(ctx, http.MethodPost, "/todos", api.CreateTodoRequest{Title: title}, &out)
	return out, err
}

func (c *APIClient) ToggleTodo(ctx context.Context, id string) (api.Todo, error) {
	var out api.Todo
	err := c.request(ctx, http.MethodPatch, "/todos/"+url.PathEscape(id)+"/toggle", nil, &out)
	return out, err
}

func (c *APIClient) DeleteTodo(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}

func (c *APIClient) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	err := c.request(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Track posts one telemetry event.
func (c *APIClient) Track(ctx context.Context, event string, properties map[string]interface{}) error {
	return c.request(ctx, http.MethodPost, "/track",
		api.TrackEventRequest{Event: event, Properties: properties}, nil)
}

func (c *APIClient) request(ctx context.Context, method, endpoint string, body, out interface{}) error {
	target := c.baseURL + endpoint
	opts := TraceOptions{
		Operation: "http." + strings.ToLower(method),
		Kind:      trace.SpanKindClient,
		Attributes: []attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("http.url", target),
			attribute.String("http.target", endpoint),
			attribute.String("component", "api-client"),
		},
	}
	_, err := TraceOperation(ctx, c.tracer, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.do(ctx, method, target, body, out)
	})
	return err
}

func (c *APIClient) do(ctx context.Context, method, target string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
		var errBody api.ErrorResponse
		if raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); len(raw) > 0 && json.Unmarshal(raw, &errBody) == nil {
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
