package views

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sandeepkv93/smarttodo/internal/model"
)

func TaskRow(t model.Task) TaskRowData {
	row := TaskRowData{
		ID:       t.ID,
		Title:    t.Title,
		Category: string(t.Category),
		Done:     t.Done,
	}
	if t.Due != nil {
		row.Due = t.Due.String()
	}
	if t.RemindEnabled && t.RemindTime != nil {
		row.Remind = *t.RemindTime
	}
	return row
}

// CalendarMonth builds the grid for month with due-task counts per day and
// the task list for selected.
func CalendarMonth(tasks []model.Task, month, selected, today model.Date) CalendarPanelData {
	cells := model.MonthCells(month.Year, month.Month)
	data := CalendarPanelData{
		MonthLabel: fmt.Sprintf("%s %d", month.Month, month.Year),
		DayLabel:   fmt.Sprintf("%s %s", selected.Weekday(), selected),
	}
	for i := 0; i < len(cells); i += 7 {
		week := make([]*CalendarCellData, 7)
		for j, d := range cells[i : i+7] {
			if d == nil {
				continue
			}
			week[j] = &CalendarCellData{
				Day:      d.Day,
				Count:    len(model.DueOn(tasks, *d)),
				Today:    d.Equal(today),
				Selected: d.Equal(selected),
			}
		}
		data.Weeks = append(data.Weeks, week)
	}
	for _, t := range model.DueOn(tasks, selected) {
		data.DayTasks = append(data.DayTasks, TaskRow(t))
	}
	return data
}

// RenderTaskTable is the plain listing used outside the TUI.
func RenderTaskTable(rows []TaskRowData) string {
	if len(rows) == 0 {
		return "no tasks"
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "", "TITLE", "CATEGORY", "DUE", "REMIND")
	for _, r := range rows {
		box := "[ ]"
		if r.Done {
			box = "[x]"
		}
		t.Row(shortID(r.ID), box, r.Title, r.Category, orDash(r.Due), orDash(r.Remind))
	}
	return t.String()
}
