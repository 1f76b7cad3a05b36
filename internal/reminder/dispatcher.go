package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/notify"
)

type opKind int

const (
	opSchedule opKind = iota
	opCancel
	opCancelAll
	opBarrier
)

func (k opKind) String() string {
	switch k {
	case opSchedule:
		return "schedule"
	case opCancel:
		return "cancel"
	case opCancelAll:
		return "cancel_all"
	default:
		return "barrier"
	}
}

type backendCall struct {
	kind    opKind
	task    model.Task
	taskID  string
	barrier chan struct{}
}

// dispatcher runs backend calls one at a time in the order they were queued.
// The queue is unbounded so enqueueing never blocks a mutation.
type dispatcher struct {
	backend notify.Backend
	ctx     context.Context
	timeout time.Duration
	log     logrus.FieldLogger

	mu      sync.Mutex
	cond    *sync.Cond
	items   []backendCall
	closed  bool
	stopped chan struct{}
}

func newDispatcher(ctx context.Context, backend notify.Backend, timeout time.Duration, log logrus.FieldLogger) *dispatcher {
	d := &dispatcher{
		backend: backend,
		ctx:     ctx,
		timeout: timeout,
		log:     log,
		stopped: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.loop()
	return d
}

func (d *dispatcher) enqueue(c backendCall) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.items = append(d.items, c)
	d.cond.Signal()
	return true
}

// close stops accepting calls and waits for queued ones to finish.
func (d *dispatcher) close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		d.cond.Broadcast()
	}
	d.mu.Unlock()
	<-d.stopped
}

func (d *dispatcher) next() (backendCall, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.items) == 0 && !d.closed {
		d.cond.Wait()
	}
	if len(d.items) == 0 {
		return backendCall{}, false
	}
	c := d.items[0]
	d.items[0] = backendCall{}
	d.items = d.items[1:]
	return c, true
}

func (d *dispatcher) loop() {
	defer close(d.stopped)
	for {
		c, ok := d.next()
		if !ok {
			return
		}
		d.run(c)
	}
}

// run executes one call. Backend calls run under their own deadline.
func (d *dispatcher) run(c backendCall) {
	if c.kind == opBarrier {
		close(c.barrier)
		return
	}
	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(d.ctx, d.timeout)
		defer cancel()
	}

	switch c.kind {
	case opSchedule:
		scheduled, err := d.backend.Schedule(ctx, c.task)
		entry := d.log.WithField("task_id", c.task.ID)
		if err != nil {
			entry.WithError(err).Warn("schedule reminder failed")
		} else if !scheduled {
			entry.Debug("reminder not scheduled")
		}
	case opCancel:
		if err := d.backend.Cancel(ctx, c.taskID); err != nil {
			d.log.WithError(err).WithField("task_id", c.taskID).Warn("cancel reminder failed")
		}
	case opCancelAll:
		if err := d.backend.CancelAll(ctx); err != nil {
			d.log.WithError(err).Warn("cancel all reminders failed")
		}
	}
}
