package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cursor-todo/internal/client"
	"cursor-todo/pkg/api"
)

type stubAPI struct {
	todos     []api.Todo
	toggleErr error
}

func (s *stubAPI) ListTodos(context.Context) ([]api.Todo, error) {
	return append([]api.Todo{}, s.todos...), nil
}

func (s *stubAPI) CreateTodo(_ context.Context, title string) (api.Todo, error) {
	t := api.Todo{ID: "srv-" + title, Title: title}
	s.todos = append([]api.Todo{t}, s.todos...)
	return t, nil
}

func (s *stubAPI) ToggleTodo(_ context.Context, id string) (api.Todo, error) {
	if s.toggleErr != nil {
		return api.Todo{}, s.toggleErr
	}
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i].Completed = !s.todos[i].Completed
			return s.todos[i], nil
		}
	}
	return api.Todo{}, errors.New("not found")
}

func (s *stubAPI) DeleteTodo(context.Context, string) error { return nil }

type nopTracker struct{}

func (nopTracker) Track(string, map[string]interface{}) {}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// pressAndWait also runs the returned server round trip and feeds its result back.
func pressAndWait(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	require.NotNil(t, cmd)
	done, ok := cmd().(mutationDoneMsg)
	require.True(t, ok)
	next, _ = m.Update(done)
	return next.(Model)
}

func newTestModel(t *testing.T, stub *stubAPI) Model {
	t.Helper()
	controller := client.NewController(stub, nopTracker{}, zap.NewNop())
	m := NewModel(controller, client.NewTracer(zap.NewNop()))
	out := m.Init()()
	next, _ := m.Update(out)
	return next.(Model)
}

func TestModelLoadsOnInit(t *testing.T) {
	m := newTestModel(t, &stubAPI{todos: []api.Todo{{ID: "1", Title: "milk"}, {ID: "2", Title: "eggs", Completed: true}}})

	require.Len(t, m.list.Items(), 2)
	assert.Contains(t, m.View(), "milk")
	assert.Empty(t, m.err)
}

func TestModelFilterCycle(t *testing.T) {
	m := newTestModel(t, &stubAPI{todos: []api.Todo{{ID: "1", Title: "milk"}, {ID: "2", Title: "eggs", Completed: true}}})

	m = press(t, m, keyPress("tab"))
	assert.Equal(t, client.FilterActive, m.filter)
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "milk", m.list.Items()[0].FilterValue())

	m = press(t, m, keyPress("tab"))
	assert.Equal(t, client.FilterCompleted, m.filter)
	assert.Equal(t, "eggs", m.list.Items()[0].FilterValue())

	m = press(t, m, keyPress("tab"))
	assert.Equal(t, client.FilterAll, m.filter)
	assert.Len(t, m.list.Items(), 2)
}

func TestModelAddTodo(t *testing.T) {
	stub := &stubAPI{}
	m := newTestModel(t, stub)

	m = press(t, m, keyPress("a"))
	require.True(t, m.adding)

	m = press(t, m, keyPress("enter"))
	assert.True(t, m.adding, "blank titles keep the input open")
	assert.Equal(t, "Title cannot be empty", m.err)

	for _, r := range "bread" {
		m = press(t, m, keyPress(string(r)))
	}
	m = pressAndWait(t, m, keyPress("enter"))

	assert.False(t, m.adding)
	assert.Empty(t, m.err)
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "bread", m.list.Items()[0].FilterValue())
	assert.Len(t, stub.todos, 1)
}

func TestModelToggleFailureShowsError(t *testing.T) {
	stub := &stubAPI{todos: []api.Todo{{ID: "1", Title: "milk"}}, toggleErr: errors.New("offline")}
	m := newTestModel(t, stub)

	m = pressAndWait(t, m, keyPress(" "))

	assert.True(t, strings.HasPrefix(m.err, "toggle failed"))
	item := m.list.Items()[0].(todoItem)
	assert.False(t, item.todo.Completed, "rolled back")
}

func TestModelTodosChangedMsg(t *testing.T) {
	m := newTestModel(t, &stubAPI{})

	next, _ := m.Update(TodosChangedMsg{Todos: []api.Todo{{ID: client.TempIDPrefix + "x", Title: "pending"}}})
	m = next.(Model)

	require.Len(t, m.list.Items(), 1)
	assert.Contains(t, m.View(), "saving...")
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, &stubAPI{})

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
