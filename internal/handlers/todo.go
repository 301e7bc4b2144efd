package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "cursor-todo/internal/domain/todo"
	"cursor-todo/internal/service/todo"
	"cursor-todo/pkg/api"
)

// TodoHandler serves the /todos resource.
type TodoHandler struct {
	errorResponder
	service todo.Service
}

func NewTodoHandler(service todo.Service, production bool, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{
		errorResponder: errorResponder{production: production, logger: logger},
		service:        service,
	}
}

// Routes mounts the todo endpoints.
func (h *TodoHandler) Routes(r chi.Router) {
	r.Get("/todos", h.List)
	r.Post("/todos", h.Create)
	r.Patch("/todos/{id}/toggle", h.Toggle)
	r.Delete("/todos/{id}", h.Delete)
}

// List handles GET /todos
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.service.ListTodos(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	out := make([]api.Todo, 0, len(todos))
	for _, t := range todos {
		out = append(out, toAPI(t))
	}
	api.Success(w, http.StatusOK, out)
}

// Create handles POST /todos
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.CreateTodo(r.Context(), req.Title)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, toAPI(created))
}

// Toggle handles PATCH /todos/{id}/toggle
func (h *TodoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.ToggleTodo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, toAPI(updated))
}

// Delete handles DELETE /todos/{id}
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTodo(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

func toAPI(t *domain.Todo) api.Todo {
	return api.Todo{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
