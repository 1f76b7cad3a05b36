package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/smarttodo/internal/app"
	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/notify"
	"github.com/sandeepkv93/smarttodo/internal/reminder"
)

type View string

const (
	ViewHome     View = "Home"
	ViewUpcoming View = "Upcoming"
	ViewStats    View = "Stats"
	ViewCalendar View = "Calendar"
)

var allViews = []View{ViewHome, ViewUpcoming, ViewStats, ViewCalendar}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Home     string
	Upcoming string
	Stats    string
	Calendar string
	Help     string
	Quit     string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type CalendarState struct {
	Month    model.Date
	Selected model.Date
}

type Model struct {
	CurrentView    View
	Filter         model.Filter
	Query          string
	Cursor         int
	SelectedTaskID string
	Calendar       CalendarState
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []notify.Notification
	Status         StatusBar
	Keys           GlobalKeyMap
	UserName       string
	Quitting       bool
	LastError      error

	svc         *app.Service
	ctx         context.Context
	now         func() time.Time
	changes     <-chan reminder.Change
	unsubscribe func()
	fired       <-chan notify.Notification
	tasks       []model.Task

	commandInput textinput.Model
	helpModel    help.Model
	rateBar      progress.Model
}

type Options struct {
	Context  context.Context
	UserName string
	// Fired delivers reminders from the local backend while the TUI runs.
	Fired <-chan notify.Notification
	Now   func() time.Time
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type TasksChangedMsg struct {
	Change reminder.Change
}

type ReminderFiredMsg struct {
	Notification notify.Notification
}

const maxNotifications = 5

func NewModel(svc *app.Service, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	today := model.DateOf(opts.Now())
	m := Model{
		CurrentView: ViewHome,
		Filter:      model.FilterAll,
		Calendar: CalendarState{
			Month:    model.NewDate(today.Year, today.Month, 1),
			Selected: today,
		},
		Keys: GlobalKeyMap{
			Home:     "1",
			Upcoming: "2",
			Stats:    "3",
			Calendar: "4",
			Help:     "?",
			Quit:     "q",
		},
		UserName: opts.UserName,
		svc:      svc,
		ctx:      opts.Context,
		now:      opts.Now,
		fired:    opts.Fired,
	}
	if svc != nil {
		m.changes, m.unsubscribe = svc.Coordinator().Subscribe()
	}
	m.initBubbleComponents()
	m.refresh()
	return m
}

// Close drops the model's change subscription. Safe to call on any copy and
// more than once.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Placeholder = "add Buy milk due:tomorrow at:08:00 cat:personal"
	m.commandInput.Prompt = "/ "
	m.commandInput.CharLimit = 256

	m.helpModel = help.New()
	m.helpModel.ShowAll = true

	m.rateBar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage())
}

func (m *Model) refresh() {
	if m.svc == nil {
		m.tasks = nil
	} else {
		m.tasks = m.svc.Tasks()
	}
	m.clampCursor()
}

func (m Model) visibleTasks() []model.Task {
	return model.Select(m.tasks, m.Filter, m.Query)
}

func (m *Model) clampCursor() {
	visible := m.visibleTasks()
	if m.Cursor >= len(visible) {
		m.Cursor = len(visible) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if len(visible) == 0 {
		m.SelectedTaskID = ""
		return
	}
	m.SelectedTaskID = visible[m.Cursor].ID
}

func (m Model) selectedTask() (model.Task, bool) {
	for _, t := range m.tasks {
		if t.ID == m.SelectedTaskID {
			return t, true
		}
	}
	return model.Task{}, false
}

func (m Model) today() model.Date {
	return model.DateOf(m.now())
}
