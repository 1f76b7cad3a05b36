package model

import "time"

// MonthCells lays out a month Sunday-first. Blank cells are nil and the
// slice length is always a multiple of 7.
func MonthCells(year int, month time.Month) []*Date {
	first := NewDate(year, month, 1)
	offset := int(first.Weekday())
	days := DaysIn(year, month)

	cells := make([]*Date, 0, 42)
	for i := 0; i < offset; i++ {
		cells = append(cells, nil)
	}
	for d := 1; d <= days; d++ {
		day := NewDate(year, month, d)
		cells = append(cells, &day)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}
	return cells
}

func DueOn(tasks []Task, day Date) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if t.Due != nil && t.Due.Equal(day) {
			out = append(out, t)
		}
	}
	return out
}
