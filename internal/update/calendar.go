package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/views"
)

func (m Model) handleCalendarKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "h", "left":
		m.selectDay(m.Calendar.Selected.AddDays(-1))
	case "l", "right":
		m.selectDay(m.Calendar.Selected.AddDays(1))
	case "k", "up":
		m.selectDay(m.Calendar.Selected.AddDays(-7))
	case "j", "down":
		m.selectDay(m.Calendar.Selected.AddDays(7))
	case "[":
		m.shiftMonth(-1)
	case "]":
		m.shiftMonth(1)
	case "t":
		m.selectDay(m.today())
	case "n", "a":
		return m.openPalette(fmt.Sprintf("add due:%s ", m.Calendar.Selected))
	}
	return m
}

func (m *Model) selectDay(d model.Date) {
	m.Calendar.Selected = d
	m.Calendar.Month = model.NewDate(d.Year, d.Month, 1)
}

// shiftMonth keeps the selected day of month, clamped to the new month.
func (m *Model) shiftMonth(delta int) {
	first := model.DateOf(m.Calendar.Month.In(time.UTC).AddDate(0, delta, 0))
	day := m.Calendar.Selected.Day
	if n := model.DaysIn(first.Year, first.Month); day > n {
		day = n
	}
	m.selectDay(model.NewDate(first.Year, first.Month, day))
}

func (m Model) renderCalendarView() string {
	return views.RenderCalendarPanel(views.CalendarMonth(m.tasks, m.Calendar.Month, m.Calendar.Selected, m.today()))
}
