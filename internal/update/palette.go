package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/smarttodo/internal/commands"
	"github.com/sandeepkv93/smarttodo/internal/views"
)

const paletteHint = "add | done | rm | edit | remind <id> HH:mm|off | show [filter] [query]"

func (m Model) openPalette(prefill string) Model {
	m.Palette.Active = true
	m.Palette.Input = prefill
	m.commandInput.SetValue(prefill)
	m.commandInput.CursorEnd()
	m.commandInput.Focus()
	return m
}

func (m Model) closePalette() Model {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.commandInput.CursorEnd()
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		m.commandInput, _ = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()

	cmd, err := commands.Parse(raw, m.today())
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	if m.svc == nil && cmd.Type != commands.TypeShow {
		m.Status = StatusBar{Text: errNoService.Error(), IsError: true}
		return m
	}

	var handlers commands.Handlers
	if m.svc != nil {
		handlers = commands.ServiceHandlers(m.ctx, m.svc, nil)
	}
	var show *commands.ShowArgs
	handlers.Show = func(s commands.ShowArgs) (commands.Result, error) {
		show = &s
		msg := fmt.Sprintf("showing %s", s.Filter)
		if s.Query != "" {
			msg += fmt.Sprintf(" matching %q", s.Query)
		}
		return commands.Result{Message: msg}, nil
	}

	res, err := commands.Execute(cmd, handlers)
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	if show != nil {
		m.CurrentView = ViewHome
		m.Filter = show.Filter
		m.Query = show.Query
		m.Cursor = 0
	}
	m.Status = StatusBar{Text: res.Message}
	m.refresh()
	if res.TaskID != "" {
		m.selectTask(res.TaskID)
	}
	return m
}

// selectTask moves the cursor onto id when it is visible.
func (m *Model) selectTask(id string) {
	for i, t := range m.visibleTasks() {
		if t.ID == id {
			m.Cursor = i
			m.SelectedTaskID = id
			return
		}
	}
}

func (m Model) renderPalette() string {
	return views.RenderPalette(views.PalettePanelData{
		InputView: m.commandInput.View(),
		Hint:      paletteHint,
	})
}
