package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// Workers repeatedly reschedule their own tasks; only the last schedule of
// each task may fire, and cancelled tasks never do.
func TestEngineStressRescheduleAndCancel(t *testing.T) {
	engine := NewEngine(4096)
	engine.Start()
	defer engine.Stop()

	const workers = 8
	const tasksPerWorker = 100
	const reschedules = 3

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < tasksPerWorker; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				for r := 0; r < reschedules; r++ {
					ev := ReminderEvent{
						TaskID:    id,
						Title:     fmt.Sprintf("edit %d", r),
						TriggerAt: start.Add(time.Duration(200+(i+r)%40) * time.Millisecond),
					}
					if err := engine.Schedule(ev); err != nil {
						t.Errorf("schedule %s: %v", id, err)
						return
					}
				}
				if i%4 == 0 {
					engine.Cancel(id)
				}
			}
		}(w)
	}
	wg.Wait()

	want := workers * tasksPerWorker * 3 / 4
	if got := engine.Len(); got > want {
		t.Fatalf("pending = %d, want at most %d", got, want)
	}

	seen := make(map[string]bool, want)
	deadline := time.After(5 * time.Second)
	for len(seen) < want {
		select {
		case <-deadline:
			t.Fatalf("timeout: received=%d want=%d dropped=%d", len(seen), want, engine.Dropped())
		case ev := <-engine.C():
			if seen[ev.TaskID] {
				t.Fatalf("task %s fired twice", ev.TaskID)
			}
			if ev.Title != fmt.Sprintf("edit %d", reschedules-1) {
				t.Fatalf("task %s fired a stale schedule %q", ev.TaskID, ev.Title)
			}
			seen[ev.TaskID] = true
		}
	}

	select {
	case ev := <-engine.C():
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", engine.Dropped())
	}
}
