package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/scheduler"
)

type recordingNotifier struct {
	mu        sync.Mutex
	sent      []Notification
	available bool
}

func (r *recordingNotifier) Send(n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) Available() bool { return r.available }

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func remindTask(id string, due model.Date, clock string) model.Task {
	return model.Task{
		ID:            id,
		Title:         "Task " + id,
		Category:      model.CategoryWork,
		Due:           &due,
		RemindEnabled: true,
		RemindTime:    model.StringPtr(clock),
	}
}

func TestLocalScheduleOnlyFutureReminders(t *testing.T) {
	engine := scheduler.NewEngine(4)
	local := NewLocal(engine, &recordingNotifier{})
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	local.now = func() time.Time { return now }

	ok, err := local.Schedule(context.Background(), remindTask("future", model.NewDate(2026, 3, 11), "08:00"))
	if err != nil || !ok {
		t.Fatalf("expected future reminder to schedule, ok=%v err=%v", ok, err)
	}
	ev, pending := engine.Pending("future")
	if !pending {
		t.Fatalf("expected pending event")
	}
	want := time.Date(2026, 3, 11, 8, 0, 0, 0, time.Local)
	if !ev.TriggerAt.Equal(want) || ev.Category != "Work" {
		t.Fatalf("unexpected event: %#v", ev)
	}

	cases := []model.Task{
		remindTask("past", model.NewDate(2026, 3, 9), "08:00"),
		remindTask("now", model.NewDate(2026, 3, 10), "12:00"),
		remindTask("bad-clock", model.NewDate(2026, 3, 11), "25:00"),
		{ID: "no-remind", Title: "x", Due: &model.Date{Year: 2026, Month: 3, Day: 11}},
	}
	done := remindTask("done", model.NewDate(2026, 3, 11), "08:00")
	done.Done = true
	cases = append(cases, done)

	for _, task := range cases {
		ok, err := local.Schedule(context.Background(), task)
		if err != nil || ok {
			t.Fatalf("%s: expected skip, ok=%v err=%v", task.ID, ok, err)
		}
		if _, pending := engine.Pending(task.ID); pending {
			t.Fatalf("%s: unexpected pending event", task.ID)
		}
	}

	if err := local.Cancel(context.Background(), "future"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if engine.Len() != 0 {
		t.Fatalf("expected empty engine after cancel, got %d", engine.Len())
	}
}

func TestLocalCancelAll(t *testing.T) {
	engine := scheduler.NewEngine(4)
	local := NewLocal(engine, nil)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	local.now = func() time.Time { return now }

	for _, id := range []string{"a", "b", "c"} {
		if _, err := local.Schedule(context.Background(), remindTask(id, model.NewDate(2026, 3, 12), "09:30")); err != nil {
			t.Fatalf("schedule %s: %v", id, err)
		}
	}
	if err := local.CancelAll(context.Background()); err != nil {
		t.Fatalf("cancel all: %v", err)
	}
	if engine.Len() != 0 {
		t.Fatalf("expected no pending reminders, got %d", engine.Len())
	}
}

func TestLocalPermission(t *testing.T) {
	notifier := &recordingNotifier{}
	local := NewLocal(scheduler.NewEngine(1), notifier)
	if local.HasPermission(context.Background()) {
		t.Fatalf("expected no permission without notifier")
	}
	if err := local.RequestPermission(context.Background()); err == nil {
		t.Fatalf("expected permission error")
	}
	notifier.available = true
	if !local.HasPermission(context.Background()) || local.RequestPermission(context.Background()) != nil {
		t.Fatalf("expected permission with available notifier")
	}
}

func TestLocalRunDeliversFiredReminders(t *testing.T) {
	engine := scheduler.NewEngine(4)
	engine.Start()
	defer engine.Stop()

	notifier := &recordingNotifier{available: true}
	local := NewLocal(engine, notifier)
	fired := make(chan Notification, 1)
	local.OnFire(func(n Notification) { fired <- n })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go local.Run(ctx)

	if err := engine.Schedule(scheduler.ReminderEvent{
		TaskID:    "soon",
		Title:     "Stand-up",
		Category:  "Work",
		TriggerAt: time.Now().Add(20 * time.Millisecond),
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case n := <-fired:
		if n.TaskID != "soon" || n.Body != "Stand-up (Work)" || n.Title != reminderTitle {
			t.Fatalf("unexpected notification: %#v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for reminder")
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one desktop notification, got %d", notifier.count())
	}
}

func TestNoopBackend(t *testing.T) {
	var b Backend = Noop{}
	ok, err := b.Schedule(context.Background(), remindTask("a", model.NewDate(2099, 1, 1), "08:00"))
	if ok || err != nil {
		t.Fatalf("noop schedule should skip, ok=%v err=%v", ok, err)
	}
	if b.HasPermission(context.Background()) {
		t.Fatalf("noop should report no permission")
	}
}
