package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/notify"
	"github.com/sandeepkv93/smarttodo/internal/scheduler"
)

type backendCallRecord struct {
	op     string
	taskID string
	task   model.Task
}

type recordingBackend struct {
	mu          sync.Mutex
	calls       []backendCallRecord
	scheduleErr error
	block       chan struct{}
}

func (r *recordingBackend) Schedule(_ context.Context, task model.Task) (bool, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, backendCallRecord{op: "schedule", taskID: task.ID, task: task})
	if r.scheduleErr != nil {
		return false, r.scheduleErr
	}
	return true, nil
}

func (r *recordingBackend) Cancel(_ context.Context, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, backendCallRecord{op: "cancel", taskID: taskID})
	return nil
}

func (r *recordingBackend) CancelAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, backendCallRecord{op: "cancel_all"})
	return nil
}

func (r *recordingBackend) HasPermission(context.Context) bool      { return true }
func (r *recordingBackend) RequestPermission(context.Context) error { return nil }

func (r *recordingBackend) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		if c.taskID == "" {
			out[i] = c.op
			continue
		}
		out[i] = c.op + ":" + c.taskID
	}
	return out
}

func (r *recordingBackend) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *recordingBackend) last() backendCallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func newTestCoordinator(t *testing.T) (*Coordinator, *recordingBackend) {
	t.Helper()
	backend := &recordingBackend{}
	c := New(backend)
	t.Cleanup(c.Close)
	return c, backend
}

func flush(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func assertOps(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, got)
		}
	}
}

func tomorrowTask(id, clock string) model.Task {
	due := model.Today().AddDays(1)
	return model.Task{
		ID:            id,
		Title:         "Task " + id,
		Category:      model.CategoryWork,
		Due:           &due,
		RemindEnabled: true,
		RemindTime:    model.StringPtr(clock),
	}
}

func TestCreateSchedulesExactlyOnce(t *testing.T) {
	c, backend := newTestCoordinator(t)
	c.Create(tomorrowTask("t1", "08:00"))
	flush(t, c)

	assertOps(t, backend.ops(), "schedule:t1")
	got := backend.last().task
	fire, ok := model.ComputeFireTime(got.Due, got.RemindTime)
	if !ok {
		t.Fatalf("expected computable fire time")
	}
	d := model.Today().AddDays(1)
	want := time.Date(d.Year, d.Month, d.Day, 8, 0, 0, 0, time.Local)
	if !fire.Equal(want) {
		t.Fatalf("expected fire at %s, got %s", want, fire)
	}
}

func TestCreateAssignsIDAndInsertsAtFront(t *testing.T) {
	backend := &recordingBackend{}
	n := 0
	c := New(backend, WithIDFunc(func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}))
	defer c.Close()

	first := c.Create(model.Task{Title: "first"})
	second := c.Create(model.Task{Title: "second", Category: "Bogus"})
	if first.ID != "gen-1" || second.ID != "gen-2" {
		t.Fatalf("unexpected ids %q %q", first.ID, second.ID)
	}
	if second.Category != model.CategoryPersonal {
		t.Fatalf("expected default category, got %q", second.Category)
	}
	tasks := c.Tasks()
	if len(tasks) != 2 || tasks[0].ID != "gen-2" || tasks[1].ID != "gen-1" {
		t.Fatalf("expected newest first, got %#v", tasks)
	}
	flush(t, c)
	assertOps(t, backend.ops())
}

func TestRemindDisabledNeverSchedules(t *testing.T) {
	c, backend := newTestCoordinator(t)
	task := tomorrowTask("t1", "08:00")
	task.RemindEnabled = false

	c.Create(task)
	c.Update("t1", func(t *model.Task) { t.Title = "renamed" })
	c.ToggleDone("t1")
	c.ToggleDone("t1")
	c.Remove("t1")
	flush(t, c)

	for _, op := range backend.ops() {
		if op == "schedule:t1" {
			t.Fatalf("unexpected schedule for disabled reminder: %v", backend.ops())
		}
	}
	assertOps(t, backend.ops(), "cancel:t1", "cancel:t1", "cancel:t1")
}

func TestUpdateCancelsThenReschedules(t *testing.T) {
	c, backend := newTestCoordinator(t)
	c.Create(tomorrowTask("t1", "08:00"))
	flush(t, c)
	backend.reset()

	updated, ok := c.Update("t1", func(t *model.Task) {
		t.RemindTime = model.StringPtr("09:00")
		t.ID = "hijack"
	})
	if !ok || updated.ID != "t1" {
		t.Fatalf("expected update to keep id, got %#v ok=%v", updated, ok)
	}
	flush(t, c)

	assertOps(t, backend.ops(), "cancel:t1", "schedule:t1")
	if got := *backend.last().task.RemindTime; got != "09:00" {
		t.Fatalf("expected new remind time, got %q", got)
	}
}

func TestUpdateToDoneCancelsWithoutSchedule(t *testing.T) {
	c, backend := newTestCoordinator(t)
	c.Create(tomorrowTask("t1", "08:00"))
	flush(t, c)
	backend.reset()

	c.Update("t1", func(t *model.Task) { t.Done = true })
	flush(t, c)
	assertOps(t, backend.ops(), "cancel:t1")
}

func TestRemoveCancelsAndDrops(t *testing.T) {
	c, backend := newTestCoordinator(t)
	c.Create(tomorrowTask("t1", "08:00"))
	flush(t, c)
	backend.reset()

	if !c.Remove("t1") {
		t.Fatalf("expected remove to report success")
	}
	flush(t, c)
	assertOps(t, backend.ops(), "cancel:t1")
	if _, ok := c.Get("t1"); ok {
		t.Fatalf("expected task to be gone")
	}
	if len(c.Tasks()) != 0 {
		t.Fatalf("expected empty collection")
	}
}

func TestUnknownIDIsNoop(t *testing.T) {
	c, backend := newTestCoordinator(t)
	if _, ok := c.Update("nope", func(t *model.Task) { t.Title = "x" }); ok {
		t.Fatalf("expected update of unknown id to report false")
	}
	if c.Remove("nope") {
		t.Fatalf("expected remove of unknown id to report false")
	}
	if _, ok := c.ToggleDone("nope"); ok {
		t.Fatalf("expected toggle of unknown id to report false")
	}
	flush(t, c)
	assertOps(t, backend.ops())
}

func TestToggleDoneTwiceRestoresState(t *testing.T) {
	c, backend := newTestCoordinator(t)
	c.Create(tomorrowTask("t1", "08:00"))
	flush(t, c)
	backend.reset()

	done, _ := c.ToggleDone("t1")
	if !done.Done {
		t.Fatalf("expected done after first toggle")
	}
	flush(t, c)
	assertOps(t, backend.ops(), "cancel:t1")

	backend.reset()
	reopened, _ := c.ToggleDone("t1")
	if reopened.Done {
		t.Fatalf("expected not done after second toggle")
	}
	flush(t, c)
	assertOps(t, backend.ops(), "cancel:t1", "schedule:t1")
}

func TestBackendFailureDoesNotRollBack(t *testing.T) {
	backend := &recordingBackend{scheduleErr: errors.New("permission denied")}
	c := New(backend)
	defer c.Close()

	created := c.Create(tomorrowTask("t1", "08:00"))
	flush(t, c)
	got, ok := c.Get(created.ID)
	if !ok || got.Title != "Task t1" {
		t.Fatalf("expected task kept despite backend failure, got %#v ok=%v", got, ok)
	}
}

func TestMutationsDoNotWaitForBackend(t *testing.T) {
	backend := &recordingBackend{block: make(chan struct{})}
	c := New(backend)
	defer c.Close()

	done := make(chan struct{})
	go func() {
		c.Create(tomorrowTask("t1", "08:00"))
		c.Update("t1", func(t *model.Task) { t.Title = "edited" })
		c.Remove("t1")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("mutations blocked on backend")
	}
	close(backend.block)
	flush(t, c)
	assertOps(t, backend.ops(), "schedule:t1", "cancel:t1", "schedule:t1", "cancel:t1")
}

// stallingBackend blocks every call until its context ends.
type stallingBackend struct {
	mu   sync.Mutex
	errs []error
}

func (s *stallingBackend) wait(ctx context.Context) error {
	<-ctx.Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, ctx.Err())
	return ctx.Err()
}

func (s *stallingBackend) Schedule(ctx context.Context, _ model.Task) (bool, error) {
	return false, s.wait(ctx)
}
func (s *stallingBackend) Cancel(ctx context.Context, _ string) error { return s.wait(ctx) }
func (s *stallingBackend) CancelAll(ctx context.Context) error        { return s.wait(ctx) }
func (s *stallingBackend) HasPermission(context.Context) bool         { return true }
func (s *stallingBackend) RequestPermission(context.Context) error    { return nil }

func (s *stallingBackend) errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

func closeWithin(t *testing.T, c *Coordinator, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("close did not return within %s", d)
	}
}

func TestCallTimeoutBoundsStalledBackend(t *testing.T) {
	backend := &stallingBackend{}
	c := New(backend, WithCallTimeout(20*time.Millisecond))
	c.Create(tomorrowTask("t1", "08:00"))
	c.Create(tomorrowTask("t2", "09:00"))

	closeWithin(t, c, 2*time.Second)
	errs := backend.errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 timed out calls, got %v", errs)
	}
	for _, err := range errs {
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	}
}

func TestAbortReleasesQueuedCalls(t *testing.T) {
	backend := &stallingBackend{}
	c := New(backend, WithCallTimeout(0))
	for i := 0; i < 3; i++ {
		c.Create(tomorrowTask(fmt.Sprintf("t%d", i), "08:00"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected flush to time out, got %v", err)
	}
	c.Abort()
	closeWithin(t, c, 2*time.Second)

	errs := backend.errors()
	if len(errs) != 3 {
		t.Fatalf("expected 3 cancelled calls, got %v", errs)
	}
	for _, err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	}
}

func TestLoadRearmsSchedulableTasks(t *testing.T) {
	c, backend := newTestCoordinator(t)
	done := tomorrowTask("done", "08:00")
	done.Done = true
	off := tomorrowTask("off", "08:00")
	off.RemindEnabled = false

	c.Load([]model.Task{tomorrowTask("a", "08:00"), done, off, tomorrowTask("b", "10:00")})
	flush(t, c)

	assertOps(t, backend.ops(),
		"cancel:a", "schedule:a", "cancel:done", "cancel:off", "cancel:b", "schedule:b")
	if tasks := c.Tasks(); len(tasks) != 4 || tasks[0].ID != "a" {
		t.Fatalf("unexpected loaded tasks: %#v", tasks)
	}
}

// Two sessions share one backend; loading the second user's tasks must not
// drop reminders the first one armed.
func TestLoadKeepsOtherCollectionsReminders(t *testing.T) {
	engine := scheduler.NewEngine(16)
	defer engine.Stop()
	shared := notify.NewLocal(engine, nil)

	alice := New(shared)
	defer alice.Close()
	alice.Create(tomorrowTask("a1", "08:00"))
	flush(t, alice)

	bob := New(shared)
	defer bob.Close()
	bob.Load([]model.Task{tomorrowTask("b1", "09:00")})
	flush(t, bob)

	if _, ok := engine.Pending("a1"); !ok {
		t.Fatalf("loading another collection dropped reminder a1")
	}
	if _, ok := engine.Pending("b1"); !ok {
		t.Fatalf("expected b1 to be armed after load")
	}
	if engine.Len() != 2 {
		t.Fatalf("expected 2 pending reminders, got %d", engine.Len())
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	c, _ := newTestCoordinator(t)
	changes, unsubscribe := c.Subscribe()

	c.Create(tomorrowTask("t1", "08:00"))
	c.ToggleDone("t1")
	c.Remove("t1")

	want := []Change{
		{Kind: ChangeCreated, TaskID: "t1"},
		{Kind: ChangeUpdated, TaskID: "t1"},
		{Kind: ChangeRemoved, TaskID: "t1"},
	}
	for _, w := range want {
		select {
		case got := <-changes:
			if got != w {
				t.Fatalf("expected %#v, got %#v", w, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %#v", w)
		}
	}

	unsubscribe()
	unsubscribe()
	c.Create(tomorrowTask("t2", "08:00"))
	if _, ok := <-changes; ok {
		t.Fatalf("expected closed channel after unsubscribe")
	}
}

func TestTasksReturnsCopies(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.Create(tomorrowTask("t1", "08:00"))

	tasks := c.Tasks()
	tasks[0].Title = "mutated"
	*tasks[0].RemindTime = "23:59"

	got, _ := c.Get("t1")
	if got.Title != "Task t1" || *got.RemindTime != "08:00" {
		t.Fatalf("collection leaked through snapshot: %#v", got)
	}
}

func TestNilBackendIsNoop(t *testing.T) {
	c := New(nil)
	defer c.Close()
	c.Create(tomorrowTask("t1", "08:00"))
	c.ToggleDone("t1")
	flush(t, c)
	if len(c.Tasks()) != 1 {
		t.Fatalf("expected task stored without backend")
	}
}

func TestConcurrentMutationsKeepPerTaskOrder(t *testing.T) {
	c, backend := newTestCoordinator(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("t%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Create(tomorrowTask(id, "08:00"))
			c.Update(id, func(t *model.Task) { t.RemindTime = model.StringPtr("09:00") })
			c.Remove(id)
		}()
	}
	wg.Wait()
	flush(t, c)

	perTask := map[string][]string{}
	for _, op := range backend.ops() {
		for i := 0; i < 8; i++ {
			id := fmt.Sprintf("t%d", i)
			if op == "schedule:"+id || op == "cancel:"+id {
				perTask[id] = append(perTask[id], op)
			}
		}
	}
	for id, ops := range perTask {
		assertOps(t, ops, "schedule:"+id, "cancel:"+id, "schedule:"+id, "cancel:"+id)
	}
	if len(perTask) != 8 || len(c.Tasks()) != 0 {
		t.Fatalf("unexpected final state: %d tracked, %d tasks", len(perTask), len(c.Tasks()))
	}
}
