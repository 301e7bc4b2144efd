package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cursor-todo/pkg/api"
)

// TempIDPrefix marks todos that exist only locally while their create is in flight.
const TempIDPrefix = "temp-"

// Events reported to the tracker.
const (
	EventTodosLoaded     = "todos_loaded"
	EventTodosLoadError  = "todos_load_error"
	EventTodoCreated     = "todo_created"
	EventTodoCreateError = "todo_create_error"
	EventTodoToggled     = "todo_toggled"
	EventTodoToggleError = "todo_toggle_error"
	EventTodoDeleted     = "todo_deleted"
	EventTodoDeleteError = "todo_delete_error"
)

var (
	// ErrTentative rejects mutations of a todo whose create has not resolved.
	ErrTentative = errors.New("todo is still being created")
	// ErrUnknownTodo is returned for ids not in the local list.
	ErrUnknownTodo = errors.New("todo not in list")
	// ErrEmptyTitle is returned before any request is made.
	ErrEmptyTitle = errors.New("title must not be empty")
)

// TodoAPI is the server surface the controller mutates.
type TodoAPI interface {
	ListTodos(ctx context.Context) ([]api.Todo, error)
	CreateTodo(ctx context.Context, title string) (api.Todo, error)
	ToggleTodo(ctx context.Context, id string) (api.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// EventTracker records client events without blocking.
type EventTracker interface {
	Track(event string, properties map[string]interface{})
}

// Filter selects which todos a view shows.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "active"
	case FilterCompleted:
		return "completed"
	default:
		return "all"
	}
}

// Matches reports whether t belongs in the filtered view.
func (f Filter) Matches(t api.Todo) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// IsTentative reports whether id belongs to an unconfirmed create.
func IsTentative(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Controller owns the local todo list and applies mutations optimistically:
// the list changes immediately and is reconciled when the server answers.
// Reconciliation only touches the entry with the matching id, so overlapping
// mutations on the same todo resolve in the order their responses arrive.
type Controller struct {
	api     TodoAPI
	tracker EventTracker
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	mu        sync.Mutex
	todos     []api.Todo
	listeners []func([]api.Todo)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock overrides the time source for tentative todos.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

func NewController(todoAPI TodoAPI, tracker EventTracker, logger *zap.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		api:     todoAPI,
		tracker: tracker,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return TempIDPrefix + uuid.NewString() },
		todos:   []api.Todo{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to receive a copy of the list after every change.
func (c *Controller) OnChange(fn func([]api.Todo)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Todos returns a copy of the current list.
func (c *Controller) Todos() []api.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Filtered returns the todos matching f, in list order.
func (c *Controller) Filtered(f Filter) []api.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.Todo, 0, len(c.todos))
	for _, t := range c.todos {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// ActiveCount is the number of incomplete todos.
func (c *Controller) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.todos {
		if !t.Completed {
			n++
		}
	}
	return n
}

// Load replaces the list with the server's. On failure the list is kept.
func (c *Controller) Load(ctx context.Context) error {
	todos, err := c.api.ListTodos(ctx)
	if err != nil {
		c.logger.Error("failed to load todos", zap.Error(err))
		c.tracker.Track(EventTodosLoadError, nil)
		return err
	}

	c.mu.Lock()
	c.todos = append([]api.Todo{}, todos...)
	c.mu.Unlock()

	c.tracker.Track(EventTodosLoaded, map[string]interface{}{"count": len(todos)})
	c.notify()
	return nil
}

// Create shows a tentative todo at the head of the list, then swaps it for
// the server's entity or removes it if the create fails.
func (c *Controller) Create(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}

	ts := c.now().UTC()
	tentative := api.Todo{
		ID:        c.newID(),
		Title:     title,
		Completed: false,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	c.mu.Lock()
	c.todos = append([]api.Todo{tentative}, c.todos...)
	c.mu.Unlock()
	c.notify()

	created, err := c.api.CreateTodo(ctx, title)

	c.mu.Lock()
	idx := c.indexLocked(tentative.ID)
	if err != nil {
		if idx >= 0 {
			c.todos = append(c.todos[:idx], c.todos[idx+1:]...)
		}
	} else if idx >= 0 {
		c.todos[idx] = created
	} else if c.indexLocked(created.ID) < 0 {
		// A reload replaced the list while the create was in flight.
		c.todos = append([]api.Todo{created}, c.todos...)
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.logger.Error("failed to create todo", zap.Error(err))
		c.tracker.Track(EventTodoCreateError, nil)
		return err
	}
	c.tracker.Track(EventTodoCreated, nil)
	return nil
}

// Toggle flips the todo locally, then adopts the server's entity or restores
// the exact pre-toggle value.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	if IsTentative(id) {
		return ErrTentative
	}

	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrUnknownTodo
	}
	previousCompleted := c.todos[idx].Completed
	c.todos[idx].Completed = !previousCompleted
	c.mu.Unlock()
	c.notify()

	updated, err := c.api.ToggleTodo(ctx, id)

	c.mu.Lock()
	if idx = c.indexLocked(id); idx >= 0 {
		if err != nil {
			// Only the flag is reverted; other fields may carry newer server state.
			c.todos[idx].Completed = previousCompleted
		} else {
			c.todos[idx] = updated
		}
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.logger.Error("failed to toggle todo", zap.String("todo_id", id), zap.Error(err))
		c.tracker.Track(EventTodoToggleError, nil)
		return err
	}
	c.tracker.Track(EventTodoToggled, map[string]interface{}{"completed": updated.Completed})
	return nil
}

// Delete removes the todo locally and restores the whole pre-delete list if
// the server refuses.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if IsTentative(id) {
		return ErrTentative
	}

	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrUnknownTodo
	}
	snapshot := c.snapshotLocked()
	remaining := make([]api.Todo, 0, len(c.todos)-1)
	remaining = append(remaining, c.todos[:idx]...)
	c.todos = append(remaining, c.todos[idx+1:]...)
	c.mu.Unlock()
	c.notify()

	if err := c.api.DeleteTodo(ctx, id); err != nil {
		c.mu.Lock()
		c.todos = snapshot
		c.mu.Unlock()
		c.notify()

		c.logger.Error("failed to delete todo", zap.String("todo_id", id), zap.Error(err))
		c.tracker.Track(EventTodoDeleteError, nil)
		return err
	}
	c.tracker.Track(EventTodoDeleted, nil)
	return nil
}

func (c *Controller) indexLocked(id string) int {
	for i, t := range c.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) snapshotLocked() []api.Todo {
	return append([]api.Todo{}, c.todos...)
}

func (c *Controller) notify() {
	c.mu.Lock()
	snapshot := c.snapshotLocked()
	listeners := append([]func([]api.Todo){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
