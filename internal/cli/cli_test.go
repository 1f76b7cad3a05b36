package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	return writeBackendConfig(t, "none")
}

func writeBackendConfig(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`db_path: %s
session_path: %s
jwt_secret: test-secret
notify:
  backend: %s
log:
  level: error
`, filepath.Join(dir, "todos.db"), filepath.Join(dir, "session.jwt"), backend)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, cfg, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand(strings.NewReader(stdin), &out, &errOut)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, "", args...)
	if err != nil {
		t.Fatalf("%v failed: %v", args, err)
	}
	return out
}

// idFrom pulls the short id printed as "message [id]".
func idFrom(t *testing.T, out string) string {
	t.Helper()
	start := strings.LastIndex(out, "[")
	end := strings.LastIndex(out, "]")
	if start < 0 || end < start {
		t.Fatalf("no id in output %q", out)
	}
	return out[start+1 : end]
}

func TestAddListDoneRemove(t *testing.T) {
	cfg := writeConfig(t)

	out := mustRun(t, cfg, "add", "Buy", "milk", "due:2099-01-02", "at:08:00", "cat:work")
	if !strings.Contains(out, "added: Buy milk") {
		t.Fatalf("unexpected add output: %q", out)
	}
	id := idFrom(t, out)

	out = mustRun(t, cfg, "list")
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "2099-01-02") || !strings.Contains(out, "08:00") {
		t.Fatalf("list missing task:\n%s", out)
	}

	out = mustRun(t, cfg, "done", id)
	if !strings.Contains(out, "completed: Buy milk") {
		t.Fatalf("unexpected done output: %q", out)
	}
	if out := mustRun(t, cfg, "list", "done"); !strings.Contains(out, "Buy milk") {
		t.Fatalf("done filter should include task:\n%s", out)
	}
	if out := mustRun(t, cfg, "list", "today"); strings.Contains(out, "Buy milk") {
		t.Fatalf("today filter should hide done task:\n%s", out)
	}

	out = mustRun(t, cfg, "rm", id)
	if !strings.Contains(out, "deleted: Buy milk") {
		t.Fatalf("unexpected rm output: %q", out)
	}
	if out := mustRun(t, cfg, "list"); !strings.Contains(out, "no tasks") {
		t.Fatalf("expected empty list, got:\n%s", out)
	}
}

func TestEditAndRemind(t *testing.T) {
	cfg := writeConfig(t)
	id := idFrom(t, mustRun(t, cfg, "add", "Essay", "due:2099-05-01"))

	out := mustRun(t, cfg, "edit", id, "Essay", "draft", "memo:intro_only")
	if !strings.Contains(out, "updated: Essay draft") {
		t.Fatalf("unexpected edit output: %q", out)
	}

	if out := mustRun(t, cfg, "upcoming"); !strings.Contains(out, "no upcoming reminders") {
		t.Fatalf("reminder should be off:\n%s", out)
	}
	mustRun(t, cfg, "remind", id, "19:30")
	out = mustRun(t, cfg, "upcoming")
	if !strings.Contains(out, "Essay draft") || !strings.Contains(out, "19:30") {
		t.Fatalf("upcoming missing reminder:\n%s", out)
	}
	mustRun(t, cfg, "remind", id, "off")
	if out := mustRun(t, cfg, "upcoming"); !strings.Contains(out, "no upcoming reminders") {
		t.Fatalf("reminder should be cleared:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	cfg := writeConfig(t)
	if _, err := run(t, cfg, "", "done", "missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := run(t, cfg, "", "add", "x", "at:25:00"); err == nil {
		t.Fatal("expected invalid time error")
	}
	if _, err := run(t, cfg, "", "list", "soon"); err == nil {
		t.Fatal("expected invalid filter error")
	}
	if _, err := run(t, cfg, "", "watch"); !errors.Is(err, errNeedsLocalBackend) {
		t.Fatalf("expected local backend error, got %v", err)
	}
}

func TestStatsAndCalendar(t *testing.T) {
	cfg := writeConfig(t)
	id := idFrom(t, mustRun(t, cfg, "add", "Lab", "report", "due:2099-03-10", "cat:academic"))
	mustRun(t, cfg, "add", "Laundry", "due:2099-03-11")
	mustRun(t, cfg, "done", id)

	out := mustRun(t, cfg, "stats")
	if !strings.Contains(out, "total: 2  done: 1  active: 1") || !strings.Contains(out, "completion: 50%") {
		t.Fatalf("unexpected stats:\n%s", out)
	}

	out = mustRun(t, cfg, "calendar", "2099-03-10")
	if !strings.Contains(out, "calendar: March 2099") || !strings.Contains(out, "Lab report") {
		t.Fatalf("unexpected calendar:\n%s", out)
	}
	if strings.Contains(out, "Laundry") {
		t.Fatalf("calendar day should only list tasks due that day:\n%s", out)
	}
}

func TestAccountsScopeTasks(t *testing.T) {
	cfg := writeConfig(t)

	if out := mustRun(t, cfg, "whoami"); !strings.Contains(out, "not signed in") {
		t.Fatalf("unexpected whoami: %q", out)
	}

	out, err := run(t, cfg, "correct horse\n", "register", "ada@example.com", "--name", "Ada")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !strings.Contains(out, "signed in as Ada") {
		t.Fatalf("unexpected register output: %q", out)
	}
	mustRun(t, cfg, "add", "Ada's task")

	if out := mustRun(t, cfg, "whoami"); !strings.Contains(out, "Ada <ada@example.com>") {
		t.Fatalf("unexpected whoami: %q", out)
	}

	mustRun(t, cfg, "logout")
	if out := mustRun(t, cfg, "list"); strings.Contains(out, "Ada's task") {
		t.Fatalf("signed-out list should not show Ada's tasks:\n%s", out)
	}

	if _, err := run(t, cfg, "", "login", "ada@example.com", "--password", "wrong password"); err == nil {
		t.Fatal("expected login failure with wrong password")
	}
	mustRun(t, cfg, "login", "ada@example.com", "--password", "correct horse")
	if out := mustRun(t, cfg, "list"); !strings.Contains(out, "Ada's task") {
		t.Fatalf("signed-in list should show Ada's task:\n%s", out)
	}
}

func TestPermissionWithoutBackend(t *testing.T) {
	cfg := writeConfig(t)
	out := mustRun(t, cfg, "permission", "--request")
	if !strings.Contains(out, "none backend: not granted") {
		t.Fatalf("unexpected permission output: %q", out)
	}
}

func TestWatchCountsArmedReminders(t *testing.T) {
	cfg := writeBackendConfig(t, "local")
	mustRun(t, cfg, "add", "Dentist", "due:2099-01-02", "at:08:00")
	mustRun(t, cfg, "add", "No reminder", "due:2099-01-03")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	var out, errOut bytes.Buffer
	root := NewRootCommand(strings.NewReader(""), &out, &errOut)
	root.SetArgs([]string{"--config", cfg, "watch"})
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if !strings.Contains(out.String(), "watching 1 pending reminder(s)") {
		t.Fatalf("unexpected watch output: %q", out.String())
	}
}
