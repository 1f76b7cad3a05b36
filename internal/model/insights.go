package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrInvalidFilter = errors.New("model: invalid filter")

type Filter string

const (
	FilterAll      Filter = "all"
	FilterToday    Filter = "today"
	FilterUpcoming Filter = "upcoming"
	FilterDone     Filter = "done"
)

var Filters = []Filter{FilterAll, FilterToday, FilterUpcoming, FilterDone}

func ParseFilter(raw string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case FilterAll, FilterToday, FilterUpcoming, FilterDone:
		return f, nil
	case "":
		return FilterAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}
}

func (f Filter) Match(t Task) bool {
	switch f {
	case FilterToday:
		return !t.Done
	case FilterUpcoming:
		return t.Due != nil && !t.Done
	case FilterDone:
		return t.Done
	default:
		return true
	}
}

// Select keeps tasks matching f whose title contains query, ignoring case.
func Select(tasks []Task, f Filter, query string) []Task {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) {
			continue
		}
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

type Summary struct {
	Total    int
	Done     int
	Active   int
	Rate     int
	DueToday int
}

func Summarize(tasks []Task, today Date) Summary {
	var s Summary
	for _, t := range tasks {
		s.Total++
		if t.Done {
			s.Done++
		}
		if t.Due != nil && t.Due.Equal(today) {
			s.DueToday++
		}
	}
	s.Active = s.Total - s.Done
	s.Rate = percent(s.Done, s.Total)
	return s
}

type CategoryStat struct {
	Category Category
	Done     int
	Total    int
}

func (c CategoryStat) Active() int { return c.Total - c.Done }
func (c CategoryStat) Rate() int   { return percent(c.Done, c.Total) }

// CategoryStats returns one entry per category, in Categories order, even
// for categories with no tasks.
func CategoryStats(tasks []Task) []CategoryStat {
	out := make([]CategoryStat, len(Categories))
	index := make(map[Category]int, len(Categories))
	for i, c := range Categories {
		out[i] = CategoryStat{Category: c}
		index[c] = i
	}
	for _, t := range tasks {
		i, ok := index[t.Category]
		if !ok {
			i = index[CategoryPersonal]
		}
		out[i].Total++
		if t.Done {
			out[i].Done++
		}
	}
	return out
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return part * 100 / total
}

type UpcomingReminder struct {
	Task   Task
	FireAt time.Time
}

// UpcomingReminders lists reminders that can still fire, soonest first.
func UpcomingReminders(tasks []Task, now time.Time) []UpcomingReminder {
	out := make([]UpcomingReminder, 0)
	for _, t := range tasks {
		if !t.Schedulable() {
			continue
		}
		at, ok := ComputeFireTimeAt(now, t.Due, t.RemindTime)
		if !ok || !at.After(now) {
			continue
		}
		out = append(out, UpcomingReminder{Task: t, FireAt: at})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}
