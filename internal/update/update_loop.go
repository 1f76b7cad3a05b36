package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/smarttodo/internal/notify"
	"github.com/sandeepkv93/smarttodo/internal/reminder"
	"github.com/sandeepkv93/smarttodo/internal/views"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChangeCmd(m.changes), waitForReminderCmd(m.fired))
}

func waitForChangeCmd(ch <-chan reminder.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return TasksChangedMsg{Change: c}
	}
}

func waitForReminderCmd(ch <-chan notify.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderFiredMsg{Notification: n}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed), nil
		}

		switch typed.String() {
		case "/":
			return m.openPalette(""), nil
		case m.Keys.Home:
			m.CurrentView = ViewHome
			return m, nil
		case m.Keys.Upcoming:
			m.CurrentView = ViewUpcoming
			return m, nil
		case m.Keys.Stats:
			m.CurrentView = ViewStats
			return m, nil
		case m.Keys.Calendar:
			m.CurrentView = ViewCalendar
			return m, nil
		case "tab":
			m.CurrentView = nextView(m.CurrentView)
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		switch m.CurrentView {
		case ViewHome:
			return m.handleHomeKey(typed), nil
		case ViewCalendar:
			return m.handleCalendarKey(typed), nil
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case TasksChangedMsg:
		m.refresh()
		return m, waitForChangeCmd(m.changes)
	case ReminderFiredMsg:
		m.Notifications = append(m.Notifications, typed.Notification)
		if len(m.Notifications) > maxNotifications {
			m.Notifications = m.Notifications[len(m.Notifications)-maxNotifications:]
		}
		m.Status = StatusBar{Text: fmt.Sprintf("reminder: %s", typed.Notification.Body)}
		return m, waitForReminderCmd(m.fired)
	}

	return m, nil
}

func (m Model) View() string {
	var body, side string
	switch m.CurrentView {
	case ViewHome:
		body = m.renderHomeView()
		side = m.renderDetailView()
	case ViewUpcoming:
		body = m.renderUpcomingView()
	case ViewStats:
		body = m.renderStatsView()
	case ViewCalendar:
		body = m.renderCalendarView()
	}
	if m.Palette.Active {
		side = m.renderPalette()
	}
	if m.HelpVisible {
		side = strings.TrimSpace(side + "\n\n" + m.renderHelpView())
	}

	header := "smarttodo"
	if m.UserName != "" {
		header += " | " + m.UserName
	}
	header += fmt.Sprintf(" | view: %s", m.CurrentView)

	tabs := make([]string, len(allViews))
	active := 0
	for i, v := range allViews {
		tabs[i] = fmt.Sprintf("%d %s", i+1, v)
		if v == m.CurrentView {
			active = i
		}
	}

	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	return views.RenderApp(views.AppData{
		Header:       header,
		Tabs:         tabs,
		ActiveTab:    active,
		Body:         body,
		SidePane:     side,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotifications(),
		Footer:       fmt.Sprintf("keys: 1-4 views | tab next | / cmd | %s help | %s quit", m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderNotifications() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.Notifications))
	for i := len(m.Notifications) - 1; i >= 0; i-- {
		n := m.Notifications[i]
		lines = append(lines, fmt.Sprintf("%s %s: %s", n.At.Format("15:04"), n.Title, n.Body))
	}
	return strings.Join(lines, "\n")
}

func nextView(v View) View {
	for i, candidate := range allViews {
		if candidate == v {
			return allViews[(i+1)%len(allViews)]
		}
	}
	return ViewHome
}

func isKnownView(v View) bool {
	for _, candidate := range allViews {
		if candidate == v {
			return true
		}
	}
	return false
}
