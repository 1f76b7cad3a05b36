package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/smarttodo/internal/model"
)

var (
	ErrPermissionDenied = errors.New("notify: permission denied")
	ErrNotAuthorized    = errors.New("notify: backend not authorized")
)

// Backend schedules one-shot reminder notifications for tasks. Schedule
// reports false without an error when there is nothing to schedule.
type Backend interface {
	Schedule(ctx context.Context, task model.Task) (bool, error)
	Cancel(ctx context.Context, taskID string) error
	CancelAll(ctx context.Context) error
	HasPermission(ctx context.Context) bool
	RequestPermission(ctx context.Context) error
}

// Noop is the backend for environments without notification support.
type Noop struct{}

func (Noop) Schedule(context.Context, model.Task) (bool, error) { return false, nil }
func (Noop) Cancel(context.Context, string) error               { return nil }
func (Noop) CancelAll(context.Context) error                    { return nil }
func (Noop) HasPermission(context.Context) bool                 { return false }
func (Noop) RequestPermission(context.Context) error            { return nil }

// futureReminder is the common gate for every backend: the task must be
// schedulable and its fire time strictly after now.
func futureReminder(task model.Task, now time.Time) (model.Reminder, bool) {
	if !task.Schedulable() {
		return model.Reminder{}, false
	}
	rem, ok := model.ReminderFor(task, now)
	if !ok || !rem.FireAt.After(now) {
		return model.Reminder{}, false
	}
	return rem, true
}
