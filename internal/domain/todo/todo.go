// Package todo holds the Todo entity and its validation rules.
package todo

import (
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "cursor-todo/pkg/errors"
)

// MaxTitleLength is the maximum title length in characters, after trimming.
const MaxTitleLength = 255

// Todo is a single task. ID and CreatedAt never change after creation.
type Todo struct {
	ID        string
	Title     string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type titleInput struct {
	Title string `validate:"required,max=255"`
}

var validate = validator.New()

// Clock returns the current time; replaced in tests.
type Clock func() time.Time

// NewTodo validates the title and returns an incomplete todo with a fresh id.
func NewTodo(title string, now Clock) (*Todo, error) {
	trimmed, err := NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	ts := now().UTC()
	return &Todo{
		ID:        uuid.NewString(),
		Title:     trimmed,
		Completed: false,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// NormalizeTitle trims surrounding whitespace and enforces the length rule.
func NormalizeTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if err := validate.Struct(titleInput{Title: trimmed}); err != nil {
		return "", titleError(err)
	}
	return trimmed, nil
}

func titleError(err error) error {
	msg := "title is invalid"
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			msg = "title must not be empty"
		case "max":
			msg = "title must be at most 255 characters"
		}
	}
	return apperrors.NewValidation(msg, map[string]string{"title": msg})
}

// Toggle flips Completed and refreshes UpdatedAt.
func (t *Todo) Toggle(now Clock) {
	if now == nil {
		now = time.Now
	}
	t.Completed = !t.Completed
	t.UpdatedAt = now().UTC()
}

// Clone returns an independent copy.
func (t *Todo) Clone() *Todo {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// SortNewestFirst orders todos by CreatedAt descending, breaking ties by id.
func SortNewestFirst(todos []*Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		a, b := todos[i], todos[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
