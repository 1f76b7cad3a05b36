package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sandeepkv93/smarttodo/internal/config"
	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/scheduler"
)

const reminderTitle = "To-do reminder"

// Local keeps reminders in an in-process engine and hands fired events to a
// desktop notifier. Reminders only fire while Run is active.
type Local struct {
	engine   *scheduler.Engine
	notifier DesktopNotifier
	now      func() time.Time
	onFire   func(Notification)
}

func NewLocal(engine *scheduler.Engine, notifier DesktopNotifier) *Local {
	if notifier == nil {
		notifier = NoopDesktopNotifier{}
	}
	return &Local{engine: engine, notifier: notifier, now: time.Now}
}

// OnFire registers a callback invoked for every delivered notification,
// after the desktop notifier.
func (l *Local) OnFire(fn func(Notification)) {
	l.onFire = fn
}

func (l *Local) Engine() *scheduler.Engine {
	return l.engine
}

func (l *Local) Schedule(_ context.Context, task model.Task) (bool, error) {
	rem, ok := futureReminder(task, l.now())
	if !ok {
		return false, nil
	}
	err := l.engine.Schedule(scheduler.ReminderEvent{
		TaskID:    rem.TaskID,
		Title:     rem.Title,
		Category:  string(rem.Category),
		TriggerAt: rem.FireAt,
	})
	if err != nil {
		return false, fmt.Errorf("schedule %s: %w", task.ID, err)
	}
	return true, nil
}

func (l *Local) Cancel(_ context.Context, taskID string) error {
	l.engine.Cancel(taskID)
	return nil
}

func (l *Local) CancelAll(context.Context) error {
	l.engine.CancelAll()
	return nil
}

func (l *Local) HasPermission(context.Context) bool {
	return l.notifier.Available()
}

func (l *Local) RequestPermission(context.Context) error {
	if !l.notifier.Available() {
		return fmt.Errorf("%w: desktop notifier unavailable", ErrPermissionDenied)
	}
	return nil
}

// Run delivers fired reminders until ctx is done or the engine stops.
func (l *Local) Run(ctx context.Context) {
	log := config.WithContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-l.engine.C():
			if !ok {
				return
			}
			n := Notification{
				TaskID: ev.TaskID,
				Title:  reminderTitle,
				Body:   fmt.Sprintf("%s (%s)", ev.Title, ev.Category),
				At:     ev.TriggerAt,
			}
			if err := l.notifier.Send(n); err != nil {
				log.WithError(err).WithField("task_id", ev.TaskID).Warn("desktop notification failed")
			}
			if l.onFire != nil {
				l.onFire(n)
			}
		}
	}
}
