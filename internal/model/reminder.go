package model

import (
	"strings"
	"time"
)

const ClockLayout = "15:04"

// Reminder is a one-shot alert a backend schedules for a task.
type Reminder struct {
	TaskID   string
	Title    string
	Category Category
	FireAt   time.Time
}

// ReminderFor builds the reminder for t, or false when t has no computable
// fire time.
func ReminderFor(t Task, now time.Time) (Reminder, bool) {
	at, ok := ComputeFireTimeAt(now, t.Due, t.RemindTime)
	if !ok {
		return Reminder{}, false
	}
	return Reminder{TaskID: t.ID, Title: t.Title, Category: t.Category, FireAt: at}, true
}

// ComputeFireTime combines due and remindTime in the local zone. A nil due
// means today.
func ComputeFireTime(due *Date, remindTime *string) (time.Time, bool) {
	return ComputeFireTimeAt(time.Now(), due, remindTime)
}

// ComputeFireTimeAt is ComputeFireTime with an explicit clock; the result is
// in now's location.
func ComputeFireTimeAt(now time.Time, due *Date, remindTime *string) (time.Time, bool) {
	if remindTime == nil {
		return time.Time{}, false
	}
	hour, minute, ok := ParseClock(*remindTime)
	if !ok {
		return time.Time{}, false
	}
	day := DateOf(now)
	if due != nil {
		day = *due
	}
	if !day.IsValid() {
		return time.Time{}, false
	}
	return time.Date(day.Year, day.Month, day.Day, hour, minute, 0, 0, now.Location()), true
}

// ParseClock accepts "H:mm" and "HH:mm".
func ParseClock(raw string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found || len(h) < 1 || len(h) > 2 || len(m) != 2 {
		return 0, 0, false
	}
	hour, ok = atoiDigits(h)
	if !ok || hour > 23 {
		return 0, 0, false
	}
	minute, ok = atoiDigits(m)
	if !ok || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func atoiDigits(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
