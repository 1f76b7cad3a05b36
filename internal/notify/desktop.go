package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

type Notification struct {
	TaskID string
	Title  string
	Body   string
	At     time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
	Available() bool
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }
func (NoopDesktopNotifier) Available() bool         { return false }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return fmt.Errorf("%w: no desktop notifier on %s", ErrPermissionDenied, runtime.GOOS)
	}
}

func (ExecDesktopNotifier) Available() bool {
	var bin string
	switch runtime.GOOS {
	case "linux":
		bin = "notify-send"
	case "darwin":
		bin = "osascript"
	default:
		return false
	}
	_, err := exec.LookPath(bin)
	return err == nil
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
