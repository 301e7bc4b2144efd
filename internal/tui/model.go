// Package tui is the terminal front end of the todo API. It renders the
// optimistic controller's list and turns key presses into mutations.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"cursor-todo/internal/client"
	"cursor-todo/pkg/api"
)

const requestTimeout = 10 * time.Second

// TodosChangedMsg carries a fresh copy of the controller's list.
type TodosChangedMsg struct {
	Todos []api.Todo
}

// mutationDoneMsg reports the outcome of one server round trip.
type mutationDoneMsg struct {
	op  string
	err error
}

type todoItem struct {
	todo api.Todo
}

func (i todoItem) Title() string       { return i.todo.Title }
func (i todoItem) Description() string { return "" }
func (i todoItem) FilterValue() string { return i.todo.Title }

type itemDelegate struct{}

func (d itemDelegate) Height() int                         { return 1 }
func (d itemDelegate) Spacing() int                        { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Title
	if it.todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	if client.IsTentative(it.todo.ID) {
		text += " " + savingStyle.Render("saving...")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

var (
	addKey    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	toggleKey = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteKey = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	filterKey = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filter"))
	reloadKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload"))
)

// Model is the bubbletea model of the todo screen.
type Model struct {
	controller *client.Controller
	tracer     *client.Tracer

	list   list.Model
	input  textinput.Model
	adding bool

	filter client.Filter
	todos  []api.Todo
	err    string
}

func NewModel(controller *client.Controller, tracer *client.Tracer) Model {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	bindings := func() []key.Binding {
		return []key.Binding{addKey, toggleKey, deleteKey, filterKey, reloadKey}
	}
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 500

	m := Model{
		controller: controller,
		tracer:     tracer,
		list:       l,
		input:      ti,
		todos:      controller.Todos(),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.mutate("load", func(ctx context.Context) error {
		return m.controller.Load(ctx)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil
	case TodosChangedMsg:
		m.todos = msg.Todos
		m.refresh()
		return m, nil
	case mutationDoneMsg:
		if msg.err != nil {
			m.err = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
		} else {
			m.err = ""
		}
		// The controller may have notified before this message arrived.
		m.todos = m.controller.Todos()
		m.refresh()
		return m, nil
	}

	if m.adding {
		return m.updateAdding(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			from := m.filter
			m.filter = (m.filter + 1) % 3
			m.tracer.TraceNavigation(from.String(), m.filter.String())
			m.refresh()
			return m, nil
		case "a", "enter":
			m.adding = true
			m.input.SetValue("")
			m.tracer.TraceUserInteraction("click", "add-todo")
			return m, m.input.Focus()
		case "r":
			return m, m.mutate("load", func(ctx context.Context) error {
				return m.controller.Load(ctx)
			})
		case " ":
			todo, ok := m.selected()
			if !ok {
				return m, nil
			}
			m.tracer.TraceUserInteraction("toggle", todo.ID)
			return m, m.mutate("toggle", func(ctx context.Context) error {
				return m.controller.Toggle(ctx, todo.ID)
			})
		case "d":
			todo, ok := m.selected()
			if !ok {
				return m, nil
			}
			m.tracer.TraceUserInteraction("delete", todo.ID)
			return m, m.mutate("delete", func(ctx context.Context) error {
				return m.controller.Delete(ctx, todo.ID)
			})
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			title := strings.TrimSpace(m.input.Value())
			if title == "" {
				m.err = "Title cannot be empty"
				return m, nil
			}
			m.adding = false
			m.err = ""
			m.input.SetValue("")
			m.input.Blur()
			return m, m.mutate("create", func(ctx context.Context) error {
				return m.controller.Create(ctx, title)
			})
		case "esc":
			m.adding = false
			m.input.SetValue("")
			m.input.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	content := m.list.View()
	if m.adding {
		content += "\n" + panelStyle.Render("Add todo\n"+m.input.View())
	}
	if m.err != "" {
		content += "\n" + errorStyle.Render(m.err)
	}
	return panelStyle.Render(content)
}

// mutate runs fn off the event loop. The controller publishes list changes
// itself; the returned message only carries the error.
func (m Model) mutate(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return mutationDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) selected() (api.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return api.Todo{}, false
	}
	return it.todo, true
}

func (m *Model) refresh() {
	items := make([]list.Item, 0, len(m.todos))
	active := 0
	for _, t := range m.todos {
		if !t.Completed {
			active++
		}
		if m.filter.Matches(t) {
			items = append(items, todoItem{todo: t})
		}
	}
	m.list.SetItems(items)

	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %s",
		titleStyle.Render("Todos"),
		pendingStyle.Render("•"), active,
		successStyle.Render("✔"), len(m.todos)-active,
		accentStyle.Render("Filter"), m.filter,
	)
}

// Run starts the program and forwards every controller change to it.
func Run(controller *client.Controller, tracer *client.Tracer) error {
	p := tea.NewProgram(NewModel(controller, tracer), tea.WithAltScreen())
	controller.OnChange(func(todos []api.Todo) {
		p.Send(TodosChangedMsg{Todos: todos})
	})
	_, err := p.Run()
	return err
}
