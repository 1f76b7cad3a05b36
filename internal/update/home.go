package update

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/views"
)

var errNoService = errors.New("no task service configured")

func (m Model) handleHomeKey(msg tea.KeyMsg) Model {
	visible := m.visibleTasks()
	switch msg.String() {
	case "j", "down":
		if m.Cursor < len(visible)-1 {
			m.Cursor++
		}
	case "k", "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "g", "home":
		m.Cursor = 0
	case "G", "end":
		m.Cursor = len(visible) - 1
	case "f", "right":
		m.Filter = cycleFilter(m.Filter, 1)
		m.Cursor = 0
	case "F", "left":
		m.Filter = cycleFilter(m.Filter, -1)
		m.Cursor = 0
	case " ", "x", "enter":
		return m.toggleSelected()
	case "d", "delete":
		return m.deleteSelected()
	case "n", "a":
		return m.openPalette("add ")
	case "e":
		if m.SelectedTaskID != "" {
			return m.openPalette(fmt.Sprintf("edit %s ", m.SelectedTaskID))
		}
	case "r":
		if m.SelectedTaskID != "" {
			return m.openPalette(fmt.Sprintf("remind %s ", m.SelectedTaskID))
		}
	case "esc":
		m.Query = ""
		m.Cursor = 0
	}
	m.clampCursor()
	return m
}

func (m Model) toggleSelected() Model {
	if m.svc == nil {
		m.Status = StatusBar{Text: errNoService.Error(), IsError: true}
		return m
	}
	if m.SelectedTaskID == "" {
		return m
	}
	task, err := m.svc.ToggleTask(m.ctx, m.SelectedTaskID)
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	if task.Done {
		m.Status = StatusBar{Text: fmt.Sprintf("completed: %s", task.Title)}
	} else {
		m.Status = StatusBar{Text: fmt.Sprintf("reopened: %s", task.Title)}
	}
	m.refresh()
	return m
}

func (m Model) deleteSelected() Model {
	if m.svc == nil {
		m.Status = StatusBar{Text: errNoService.Error(), IsError: true}
		return m
	}
	task, ok := m.selectedTask()
	if !ok {
		return m
	}
	if err := m.svc.DeleteTask(m.ctx, task.ID); err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	m.Status = StatusBar{Text: fmt.Sprintf("deleted: %s", task.Title)}
	m.refresh()
	return m
}

func cycleFilter(f model.Filter, step int) model.Filter {
	for i, candidate := range model.Filters {
		if candidate == f {
			n := len(model.Filters)
			return model.Filters[((i+step)%n+n)%n]
		}
	}
	return model.FilterAll
}

func (m Model) renderHomeView() string {
	visible := m.visibleTasks()
	rows := make([]views.TaskRowData, 0, len(visible))
	for _, t := range visible {
		row := views.TaskRow(t)
		row.Selected = t.ID == m.SelectedTaskID
		rows = append(rows, row)
	}
	filters := make([]string, len(model.Filters))
	for i, f := range model.Filters {
		filters[i] = string(f)
	}
	return views.RenderHomePanel(views.HomePanelData{
		Filter:  string(m.Filter),
		Filters: filters,
		Query:   m.Query,
		Rows:    rows,
	})
}

func (m Model) renderDetailView() string {
	t, ok := m.selectedTask()
	if !ok {
		return views.RenderTaskDetail(views.TaskDetailData{})
	}
	row := views.TaskRow(t)
	return views.RenderTaskDetail(views.TaskDetailData{
		ID:       t.ID,
		Title:    t.Title,
		Category: row.Category,
		Due:      row.Due,
		Remind:   row.Remind,
		Memo:     t.Memo,
		Done:     t.Done,
	})
}

func (m Model) renderUpcomingView() string {
	now := m.now()
	upcoming := model.UpcomingReminders(m.tasks, now)
	rows := make([]views.UpcomingRowData, 0, len(upcoming))
	for _, u := range upcoming {
		rows = append(rows, views.UpcomingRowData{
			Title:    u.Task.Title,
			Category: string(u.Task.Category),
			FireAt:   u.FireAt.Format("Mon Jan 2 15:04"),
			In:       humanizeUntil(u.FireAt.Sub(now)),
		})
	}
	return views.RenderUpcomingPanel(rows)
}

func (m Model) renderStatsView() string {
	summary := model.Summarize(m.tasks, m.today())
	data := views.StatsPanelData{
		Total:    summary.Total,
		Done:     summary.Done,
		Active:   summary.Active,
		Rate:     summary.Rate,
		DueToday: summary.DueToday,
		RateBar:  m.rateBar.ViewAs(float64(summary.Rate) / 100),
	}
	for _, c := range model.CategoryStats(m.tasks) {
		data.Categories = append(data.Categories, views.CategoryRowData{
			Name:   string(c.Category),
			Done:   c.Done,
			Total:  c.Total,
			Active: c.Active(),
			Rate:   c.Rate(),
			Bar:    m.rateBar.ViewAs(float64(c.Rate()) / 100),
		})
	}
	return views.RenderStatsPanel(data)
}

func humanizeUntil(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
