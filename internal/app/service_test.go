package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/reminder"
	"github.com/sandeepkv93/smarttodo/internal/storage"
)

type fakeIdentity string

func (f fakeIdentity) CurrentUserID() string { return string(f) }

type countingBackend struct {
	mu        sync.Mutex
	scheduled map[string]int
	cancelled map[string]int
	cancelAll int
}

func newCountingBackend() *countingBackend {
	return &countingBackend{scheduled: map[string]int{}, cancelled: map[string]int{}}
}

func (b *countingBackend) Schedule(_ context.Context, t model.Task) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scheduled[t.ID]++
	return true, nil
}

func (b *countingBackend) Cancel(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelled[id]++
	return nil
}

func (b *countingBackend) CancelAll(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelAll++
	return nil
}

func (b *countingBackend) HasPermission(context.Context) bool      { return true }
func (b *countingBackend) RequestPermission(context.Context) error { return nil }

type failingStore struct {
	storage.TaskRepository
}

func (failingStore) ListTasks(context.Context, storage.TaskListFilter) ([]storage.Task, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) CreateTask(context.Context, storage.Task) error {
	return errors.New("disk on fire")
}

func setupService(t *testing.T, user string) (*Service, *storage.SQLiteRepository, *countingBackend) {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	backend := newCountingBackend()
	coord := reminder.New(backend)
	t.Cleanup(coord.Close)
	return NewService(repo, coord, fakeIdentity(user), nil), repo, backend
}

func flush(t *testing.T, s *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Coordinator().Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func tomorrow() *model.Date {
	d := model.Today().AddDays(1)
	return &d
}

func TestAddTaskPersistsAndSchedules(t *testing.T) {
	svc, repo, backend := setupService(t, "user-1")
	ctx := context.Background()

	task, err := svc.AddTask(ctx, TaskInput{
		Title:         "  Submit essay ",
		Category:      model.CategoryAcademic,
		Due:           tomorrow(),
		RemindEnabled: true,
		RemindTime:    model.StringPtr("08:00"),
	})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if task.ID == "" || task.Title != "Submit essay" || task.UserID != "user-1" {
		t.Fatalf("unexpected task: %#v", task)
	}

	row, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get persisted task: %v", err)
	}
	if row.UserID != "user-1" || row.Category != "Academic" || row.RemindTime == nil || *row.RemindTime != "08:00" {
		t.Fatalf("unexpected row: %#v", row)
	}
	flush(t, svc)
	if backend.scheduled[task.ID] != 1 {
		t.Fatalf("expected one schedule, got %d", backend.scheduled[task.ID])
	}
}

func TestAddTaskValidation(t *testing.T) {
	svc, _, _ := setupService(t, "")
	ctx := context.Background()

	cases := []TaskInput{
		{Title: "   "},
		{Title: "x", RemindEnabled: true},
		{Title: "x", RemindEnabled: true, RemindTime: model.StringPtr("7pm")},
		{Title: "x", Due: &model.Date{Year: 2026, Month: 2, Day: 30}},
	}
	for _, in := range cases {
		if _, err := svc.AddTask(ctx, in); !errors.Is(err, ErrInvalidTask) {
			t.Fatalf("input %#v: expected ErrInvalidTask, got %v", in, err)
		}
	}
	if len(svc.Tasks()) != 0 {
		t.Fatalf("invalid input must not reach the coordinator")
	}

	task, err := svc.AddTask(ctx, TaskInput{Title: "no category", RemindTime: model.StringPtr("garbage")})
	if err != nil {
		t.Fatalf("disabled reminder with bad time should be accepted: %v", err)
	}
	if task.Category != model.CategoryPersonal {
		t.Fatalf("expected default category, got %q", task.Category)
	}
}

func TestEditToggleDeleteRoundTrip(t *testing.T) {
	svc, repo, backend := setupService(t, "user-1")
	ctx := context.Background()

	task, err := svc.AddTask(ctx, TaskInput{Title: "Gym", Due: tomorrow(), RemindEnabled: true, RemindTime: model.StringPtr("06:30")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	edited, err := svc.EditTask(ctx, task.ID, func(t *model.Task) {
		t.Title = "Gym (legs)"
		t.Memo = "squats"
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Title != "Gym (legs)" {
		t.Fatalf("unexpected edit result: %#v", edited)
	}
	if _, err := svc.EditTask(ctx, task.ID, func(t *model.Task) { t.Title = "" }); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask for empty title, got %v", err)
	}

	toggled, err := svc.ToggleTask(ctx, task.ID)
	if err != nil || !toggled.Done {
		t.Fatalf("toggle: %#v %v", toggled, err)
	}
	row, err := repo.GetTask(ctx, task.ID)
	if err != nil || !row.Done || row.Title != "Gym (legs)" || row.Memo != "squats" {
		t.Fatalf("unexpected persisted row: %#v %v", row, err)
	}

	if err := svc.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTask(ctx, task.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected row deleted, got %v", err)
	}
	if err := svc.DeleteTask(ctx, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	flush(t, svc)
	if backend.scheduled[task.ID] != 2 || backend.cancelled[task.ID] != 3 {
		t.Fatalf("unexpected backend calls: scheduled=%d cancelled=%d", backend.scheduled[task.ID], backend.cancelled[task.ID])
	}
}

func TestSetReminder(t *testing.T) {
	svc, _, _ := setupService(t, "")
	ctx := context.Background()
	task, err := svc.AddTask(ctx, TaskInput{Title: "Call mom"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	on, err := svc.SetReminder(ctx, task.ID, true, "18:15")
	if err != nil || !on.RemindEnabled || *on.RemindTime != "18:15" {
		t.Fatalf("enable reminder: %#v %v", on, err)
	}
	if _, err := svc.SetReminder(ctx, task.ID, true, "99:99"); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected invalid reminder time, got %v", err)
	}
	off, err := svc.SetReminder(ctx, task.ID, false, "")
	if err != nil || off.RemindEnabled {
		t.Fatalf("disable reminder: %#v %v", off, err)
	}
	if _, err := svc.SetReminder(ctx, "missing", true, "08:00"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestStartLoadsOnlyCurrentUser(t *testing.T) {
	svc, repo, backend := setupService(t, "user-1")
	ctx := context.Background()
	due := model.Today().AddDays(2).String()
	rows := []storage.Task{
		{ID: "mine", UserID: "user-1", Title: "Mine", Category: "Work", DueDate: &due, RemindEnabled: true, RemindTime: model.StringPtr("09:00")},
		{ID: "theirs", UserID: "user-2", Title: "Theirs", Category: "Work"},
	}
	for _, row := range rows {
		if err := repo.CreateTask(ctx, row); err != nil {
			t.Fatalf("seed %s: %v", row.ID, err)
		}
	}

	if n := svc.Start(ctx); n != 1 {
		t.Fatalf("expected one task loaded, got %d", n)
	}
	if tasks := svc.Tasks(); len(tasks) != 1 || tasks[0].ID != "mine" {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
	flush(t, svc)
	if backend.cancelAll != 1 || backend.scheduled["mine"] != 1 {
		t.Fatalf("expected re-arm on start, cancelAll=%d scheduled=%d", backend.cancelAll, backend.scheduled["mine"])
	}
}

func TestStoreFailuresAreNotFatal(t *testing.T) {
	coord := reminder.New(nil)
	defer coord.Close()
	svc := NewService(failingStore{}, coord, nil, nil)
	ctx := context.Background()

	if n := svc.Start(ctx); n != 0 {
		t.Fatalf("expected empty load on store error, got %d", n)
	}
	task, err := svc.AddTask(ctx, TaskInput{Title: "kept in memory"})
	if err != nil {
		t.Fatalf("add should succeed despite store failure: %v", err)
	}
	if _, ok := coord.Get(task.ID); !ok {
		t.Fatalf("expected task in coordinator")
	}
}

func TestResolveByPrefix(t *testing.T) {
	svc, _, _ := setupService(t, "")
	coord := svc.Coordinator()
	coord.Create(model.Task{ID: "abc123", Title: "one"})
	coord.Create(model.Task{ID: "abd456", Title: "two"})

	if got, err := svc.Resolve("abc"); err != nil || got.ID != "abc123" {
		t.Fatalf("resolve prefix: %#v %v", got, err)
	}
	if got, err := svc.Resolve("abd456"); err != nil || got.Title != "two" {
		t.Fatalf("resolve exact: %#v %v", got, err)
	}
	if _, err := svc.Resolve("ab"); !errors.Is(err, ErrAmbiguousRef) {
		t.Fatalf("expected ErrAmbiguousRef, got %v", err)
	}
	if _, err := svc.Resolve("zzz"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}
