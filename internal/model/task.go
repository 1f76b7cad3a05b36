package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCategory = errors.New("model: invalid task category")
	ErrInvalidRemind   = errors.New("model: invalid remind time")
)

type Category string

const (
	CategoryAcademic Category = "Academic"
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryOther    Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryAcademic, CategoryWork, CategoryPersonal, CategoryOther}

func (c Category) IsValid() bool {
	switch c {
	case CategoryAcademic, CategoryWork, CategoryPersonal, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory matches case-insensitively and falls back to Personal for
// anything it does not recognise.
func ParseCategory(raw string) Category {
	for _, c := range Categories {
		if strings.EqualFold(strings.TrimSpace(raw), string(c)) {
			return c
		}
	}
	return CategoryPersonal
}

type Task struct {
	ID            string
	UserID        string
	Title         string
	Category      Category
	Due           *Date
	RemindEnabled bool
	RemindTime    *string
	Memo          string
	Done          bool
}

// Schedulable reports whether a reminder may be active for the task.
func (t Task) Schedulable() bool {
	return t.RemindEnabled && !t.Done
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if t.Due != nil && !t.Due.IsValid() {
		return fmt.Errorf("model: invalid due date %q", t.Due.String())
	}
	if t.RemindEnabled && t.RemindTime != nil {
		if _, _, ok := ParseClock(*t.RemindTime); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidRemind, *t.RemindTime)
		}
	}
	return nil
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	out := t
	if t.Due != nil {
		d := *t.Due
		out.Due = &d
	}
	if t.RemindTime != nil {
		s := *t.RemindTime
		out.RemindTime = &s
	}
	return out
}

// StringPtr is a convenience for filling RemindTime.
func StringPtr(s string) *string {
	return &s
}
