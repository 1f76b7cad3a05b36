// Package app ties the reminder coordinator to the task store for the
// signed-in user. The coordinator is updated first; persistence failures are
// logged and never undo the in-memory change.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/smarttodo/internal/config"
	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/reminder"
	"github.com/sandeepkv93/smarttodo/internal/storage"
)

var (
	ErrInvalidTask  = errors.New("app: invalid task")
	ErrTaskNotFound = errors.New("app: task not found")
	ErrAmbiguousRef = errors.New("app: ambiguous task reference")
)

// Identity is the part of the identity provider the service needs.
type Identity interface {
	CurrentUserID() string
}

type anonymous struct{}

func (anonymous) CurrentUserID() string { return "" }

type TaskInput struct {
	Title         string
	Category      model.Category
	Due           *model.Date
	RemindEnabled bool
	RemindTime    *string
	Memo          string
}

type Service struct {
	store    storage.TaskRepository
	coord    *reminder.Coordinator
	identity Identity
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(store storage.TaskRepository, coord *reminder.Coordinator, identity Identity, log logrus.FieldLogger) *Service {
	if identity == nil {
		identity = anonymous{}
	}
	if log == nil {
		log = config.WithContext(context.Background())
	}
	return &Service{store: store, coord: coord, identity: identity, log: log, now: time.Now}
}

func (s *Service) Coordinator() *reminder.Coordinator {
	return s.coord
}

// Start loads the current user's tasks into the coordinator. A store failure
// leaves an empty collection.
func (s *Service) Start(ctx context.Context) int {
	userID := s.identity.CurrentUserID()
	rows, err := s.store.ListTasks(ctx, storage.TaskListFilter{UserID: userID})
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("load tasks failed")
		rows = nil
	}
	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.ToModel())
	}
	s.coord.Load(tasks)
	return len(tasks)
}

func (s *Service) Tasks() []model.Task {
	return s.coord.Tasks()
}

func (s *Service) AddTask(ctx context.Context, in TaskInput) (model.Task, error) {
	task := model.Task{
		UserID:        s.identity.CurrentUserID(),
		Title:         strings.TrimSpace(in.Title),
		Category:      in.Category,
		Due:           in.Due,
		RemindEnabled: in.RemindEnabled,
		RemindTime:    in.RemindTime,
		Memo:          in.Memo,
	}
	if !task.Category.IsValid() {
		task.Category = model.CategoryPersonal
	}
	if err := validate(task); err != nil {
		return model.Task{}, err
	}

	stored := s.coord.Create(task)
	row := storage.TaskFromModel(stored)
	row.CreatedAt = s.now().UTC()
	if err := s.store.CreateTask(ctx, row); err != nil {
		s.log.WithError(err).WithField("task_id", stored.ID).Error("persist new task failed")
	}
	return stored, nil
}

// EditTask validates the edited value before handing it to the coordinator.
func (s *Service) EditTask(ctx context.Context, id string, edit func(*model.Task)) (model.Task, error) {
	current, ok := s.coord.Get(id)
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	next := current.Clone()
	edit(&next)
	next.ID = current.ID
	next.UserID = current.UserID
	next.Title = strings.TrimSpace(next.Title)
	if err := validate(next); err != nil {
		return model.Task{}, err
	}

	updated, ok := s.coord.Update(id, func(t *model.Task) { *t = next })
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	s.persist(ctx, updated)
	return updated, nil
}

func (s *Service) ToggleTask(ctx context.Context, id string) (model.Task, error) {
	updated, ok := s.coord.ToggleDone(id)
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	s.persist(ctx, updated)
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if !s.coord.Remove(id) {
		return ErrTaskNotFound
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		s.log.WithError(err).WithField("task_id", id).Error("delete task failed")
	}
	return nil
}

// SetReminder turns the reminder on at clock, or off when enabled is false.
func (s *Service) SetReminder(ctx context.Context, id string, enabled bool, clock string) (model.Task, error) {
	return s.EditTask(ctx, id, func(t *model.Task) {
		t.RemindEnabled = enabled
		if enabled {
			t.RemindTime = model.StringPtr(strings.TrimSpace(clock))
		}
	})
}

// Resolve finds a task by full id or by a unique id prefix.
func (s *Service) Resolve(ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, ErrTaskNotFound
	}
	if t, ok := s.coord.Get(ref); ok {
		return t, nil
	}
	var match []model.Task
	for _, t := range s.coord.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			match = append(match, t)
		}
	}
	switch len(match) {
	case 0:
		return model.Task{}, ErrTaskNotFound
	case 1:
		return match[0], nil
	default:
		return model.Task{}, fmt.Errorf("%w: %q matches %d tasks", ErrAmbiguousRef, ref, len(match))
	}
}

func (s *Service) persist(ctx context.Context, t model.Task) {
	if err := s.store.UpdateTask(ctx, storage.TaskFromModel(t)); err != nil {
		s.log.WithError(err).WithField("task_id", t.ID).Error("persist task failed")
	}
}

func validate(t model.Task) error {
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTask, t.Category)
	}
	if t.Due != nil && !t.Due.IsValid() {
		return fmt.Errorf("%w: invalid due date", ErrInvalidTask)
	}
	if t.RemindEnabled {
		if t.RemindTime == nil {
			return fmt.Errorf("%w: reminder needs a time", ErrInvalidTask)
		}
		if _, _, ok := model.ParseClock(*t.RemindTime); !ok {
			return fmt.Errorf("%w: reminder time %q is not HH:mm", ErrInvalidTask, *t.RemindTime)
		}
	}
	return nil
}
