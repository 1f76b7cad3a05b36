package storage

import (
	"time"

	"github.com/sandeepkv93/smarttodo/internal/model"
)

type Task struct {
	ID            string
	UserID        string
	Title         string
	Category      string
	DueDate       *string
	RemindEnabled bool
	RemindTime    *string
	Memo          string
	Done          bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

type TaskListFilter struct {
	UserID string
	Limit  int
	Offset int
}

// TaskFromModel keeps no pointers into t.
func TaskFromModel(t model.Task) Task {
	out := Task{
		ID:            t.ID,
		UserID:        t.UserID,
		Title:         t.Title,
		Category:      string(t.Category),
		RemindEnabled: t.RemindEnabled,
		Memo:          t.Memo,
		Done:          t.Done,
	}
	if t.Due != nil {
		s := t.Due.String()
		out.DueDate = &s
	}
	if t.RemindTime != nil {
		s := *t.RemindTime
		out.RemindTime = &s
	}
	return out
}

// ToModel maps unknown categories to Personal and drops unparseable due
// dates rather than failing the whole row.
func (t Task) ToModel() model.Task {
	out := model.Task{
		ID:            t.ID,
		UserID:        t.UserID,
		Title:         t.Title,
		Category:      model.ParseCategory(t.Category),
		RemindEnabled: t.RemindEnabled,
		Memo:          t.Memo,
		Done:          t.Done,
	}
	if t.DueDate != nil {
		if d, err := model.ParseDate(*t.DueDate); err == nil {
			out.Due = &d
		}
	}
	if t.RemindTime != nil {
		s := *t.RemindTime
		out.RemindTime = &s
	}
	return out
}
