package commands

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/smarttodo/internal/app"
	"github.com/sandeepkv93/smarttodo/internal/model"
)

// Apply copies the options that were given onto t. Setting a time turns the
// reminder on.
func (f Fields) Apply(t *model.Task) {
	if f.Title != "" {
		t.Title = f.Title
	}
	if f.Category != nil {
		t.Category = *f.Category
	}
	if f.ClearDue {
		t.Due = nil
	}
	if f.Due != nil {
		d := *f.Due
		t.Due = &d
	}
	if f.At != nil {
		t.RemindEnabled = true
		t.RemindTime = model.StringPtr(*f.At)
	}
	if f.Memo != nil {
		t.Memo = *f.Memo
	}
}

func (f Fields) Input() app.TaskInput {
	in := app.TaskInput{Title: f.Title, Category: model.CategoryPersonal, Due: f.Due}
	if f.Category != nil {
		in.Category = *f.Category
	}
	if f.At != nil {
		in.RemindEnabled = true
		in.RemindTime = model.StringPtr(*f.At)
	}
	if f.Memo != nil {
		in.Memo = *f.Memo
	}
	return in
}

// ServiceHandlers routes every mutating command to svc. show may be nil when
// the caller has no list to filter.
func ServiceHandlers(ctx context.Context, svc *app.Service, show func(ShowArgs) (Result, error)) Handlers {
	return Handlers{
		Add: func(a AddArgs) (Result, error) {
			task, err := svc.AddTask(ctx, a.Input())
			if err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("added: %s", task.Title), TaskID: task.ID}, nil
		},
		Done: func(a TargetArgs) (Result, error) {
			target, err := svc.Resolve(a.Target)
			if err != nil {
				return Result{}, err
			}
			task, err := svc.ToggleTask(ctx, target.ID)
			if err != nil {
				return Result{}, err
			}
			state := "reopened"
			if task.Done {
				state = "completed"
			}
			return Result{Message: fmt.Sprintf("%s: %s", state, task.Title), TaskID: task.ID}, nil
		},
		Remove: func(a TargetArgs) (Result, error) {
			target, err := svc.Resolve(a.Target)
			if err != nil {
				return Result{}, err
			}
			if err := svc.DeleteTask(ctx, target.ID); err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("deleted: %s", target.Title), TaskID: target.ID}, nil
		},
		Edit: func(a EditArgs) (Result, error) {
			target, err := svc.Resolve(a.Target)
			if err != nil {
				return Result{}, err
			}
			task, err := svc.EditTask(ctx, target.ID, a.Fields.Apply)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("updated: %s", task.Title), TaskID: task.ID}, nil
		},
		Remind: func(a RemindArgs) (Result, error) {
			target, err := svc.Resolve(a.Target)
			if err != nil {
				return Result{}, err
			}
			task, err := svc.SetReminder(ctx, target.ID, !a.Off, a.At)
			if err != nil {
				return Result{}, err
			}
			if a.Off {
				return Result{Message: fmt.Sprintf("reminder off: %s", task.Title), TaskID: task.ID}, nil
			}
			return Result{Message: fmt.Sprintf("reminder at %s: %s", a.At, task.Title), TaskID: task.ID}, nil
		},
		Show: show,
	}
}
