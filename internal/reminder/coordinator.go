// Package reminder owns the in-memory task collection and keeps the
// notification backend in step with every mutation.
package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/smarttodo/internal/config"
	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/notify"
)

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeRemoved ChangeKind = "removed"
	ChangeLoaded  ChangeKind = "loaded"
)

type Change struct {
	Kind   ChangeKind
	TaskID string
}

// DefaultCallTimeout bounds a single backend call.
const DefaultCallTimeout = 30 * time.Second

type Option func(*Coordinator)

// WithContext sets the context passed to backend calls and used to pick the
// logger.
func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) { c.ctx = ctx }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithCallTimeout sets the deadline for each backend call. Zero disables it.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.callTimeout = d }
}

func WithIDFunc(fn func() string) Option {
	return func(c *Coordinator) { c.newID = fn }
}

// Coordinator holds tasks newest first. Backend calls are fire-and-forget
// and run in mutation order on a single dispatcher goroutine.
type Coordinator struct {
	mu      sync.Mutex
	tasks   []model.Task
	backend notify.Backend
	subs    map[int]chan Change
	nextSub int

	ctx         context.Context
	callTimeout time.Duration
	log         logrus.FieldLogger
	newID       func() string
	calls       *dispatcher
	stop        context.CancelFunc
}

func New(backend notify.Backend, opts ...Option) *Coordinator {
	if backend == nil {
		backend = notify.Noop{}
	}
	c := &Coordinator{
		backend:     backend,
		subs:        make(map[int]chan Change),
		ctx:         context.Background(),
		callTimeout: DefaultCallTimeout,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = config.WithContext(c.ctx)
	}
	callCtx, stop := context.WithCancel(c.ctx)
	c.stop = stop
	c.calls = newDispatcher(callCtx, backend, c.callTimeout, c.log)
	return c
}

func (c *Coordinator) Backend() notify.Backend {
	return c.backend
}

// Create stores task at the head of the collection and returns the stored
// value with its id and category filled in.
func (c *Coordinator) Create(task model.Task) model.Task {
	task = task.Clone()
	if task.ID == "" {
		task.ID = c.newID()
	}
	if !task.Category.IsValid() {
		task.Category = model.CategoryPersonal
	}

	c.mu.Lock()
	c.tasks = append([]model.Task{task}, c.tasks...)
	if task.Schedulable() {
		c.schedule(task)
	}
	c.mu.Unlock()

	c.publish(Change{Kind: ChangeCreated, TaskID: task.ID})
	return task.Clone()
}

// Update applies mutate to a copy of the task and replaces it in place. The
// id cannot be changed. Unknown ids are ignored.
func (c *Coordinator) Update(id string, mutate func(*model.Task)) (model.Task, bool) {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return model.Task{}, false
	}
	next := c.tasks[idx].Clone()
	if mutate != nil {
		mutate(&next)
	}
	next.ID = id
	c.tasks[idx] = next

	c.cancel(id)
	if next.Schedulable() {
		c.schedule(next)
	}
	c.mu.Unlock()

	c.publish(Change{Kind: ChangeUpdated, TaskID: id})
	return next.Clone(), true
}

func (c *Coordinator) Remove(id string) bool {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.tasks = append(c.tasks[:idx], c.tasks[idx+1:]...)
	c.cancel(id)
	c.mu.Unlock()

	c.publish(Change{Kind: ChangeRemoved, TaskID: id})
	return true
}

// ToggleDone flips the done flag. Completing a task cancels its reminder;
// reopening one with a reminder re-arms it.
func (c *Coordinator) ToggleDone(id string) (model.Task, bool) {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return model.Task{}, false
	}
	next := c.tasks[idx].Clone()
	next.Done = !next.Done
	c.tasks[idx] = next

	switch {
	case next.Done:
		c.cancel(id)
	case next.RemindEnabled:
		c.cancel(id)
		c.schedule(next)
	}
	c.mu.Unlock()

	c.publish(Change{Kind: ChangeUpdated, TaskID: id})
	return next.Clone(), true
}

// Load replaces the collection and re-arms reminders for every schedulable
// task. Only the loaded ids are cancelled; reminders owned by other
// collections on a shared backend are left alone.
func (c *Coordinator) Load(tasks []model.Task) {
	c.mu.Lock()
	c.tasks = make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		c.tasks = append(c.tasks, t.Clone())
	}
	for _, t := range c.tasks {
		c.cancel(t.ID)
		if t.Schedulable() {
			c.schedule(t)
		}
	}
	c.mu.Unlock()

	c.publish(Change{Kind: ChangeLoaded})
}

func (c *Coordinator) CancelAll() {
	c.calls.enqueue(backendCall{kind: opCancelAll})
}

func (c *Coordinator) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Task, len(c.tasks))
	for i, t := range c.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (c *Coordinator) Get(id string) (model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return c.tasks[idx].Clone(), true
}

// Subscribe returns a channel of collection changes. Sends never block; a
// slow subscriber misses changes rather than stalling mutations.
func (c *Coordinator) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// Flush waits until every backend call queued before it has run.
func (c *Coordinator) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !c.calls.enqueue(backendCall{kind: opBarrier, barrier: done}) {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued backend calls and stops the dispatcher. Mutations
// after Close update the collection but reach no backend.
func (c *Coordinator) Close() {
	c.calls.close()
	c.stop()
}

// Abort cancels the running backend call and every queued one. Queued calls
// still run, but with a cancelled context. Use it before Close when a Flush
// has already timed out.
func (c *Coordinator) Abort() {
	c.stop()
}

func (c *Coordinator) indexOf(id string) int {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Coordinator) schedule(task model.Task) {
	if !c.calls.enqueue(backendCall{kind: opSchedule, task: task.Clone()}) {
		c.log.WithField("task_id", task.ID).Debug("coordinator closed, schedule dropped")
	}
}

func (c *Coordinator) cancel(id string) {
	if !c.calls.enqueue(backendCall{kind: opCancel, taskID: id}) {
		c.log.WithField("task_id", id).Debug("coordinator closed, cancel dropped")
	}
}

func (c *Coordinator) publish(ch Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		select {
		case sub <- ch:
		default:
		}
	}
}
