package update

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/smarttodo/internal/views"
)

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

const paletteMarkdown = `**Commands**

- ` + "`add Buy milk due:tomorrow at:08:00 cat:personal`" + `
- ` + "`edit <id> due:none memo:call_first`" + `
- ` + "`remind <id> 07:30`" + ` or ` + "`remind <id> off`" + `
- ` + "`done <id>`" + `, ` + "`rm <id>`" + `, ` + "`show done groceries`" + `

Ids may be shortened to any unique prefix.`

func (m Model) renderHelpView() string {
	global := m.globalBindings()
	local := m.viewBindings()
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		HelpView: m.helpModel.View(helpKeyMap{
			short: global,
			full:  [][]key.Binding{global, local},
		}),
		Markdown: paletteMarkdown,
	})
}

func (m Model) globalBindings() []key.Binding {
	return []key.Binding{
		binding(m.Keys.Home, "home"),
		binding(m.Keys.Upcoming, "upcoming"),
		binding(m.Keys.Stats, "stats"),
		binding(m.Keys.Calendar, "calendar"),
		binding("tab", "next view"),
		binding("/", "command"),
		binding(m.Keys.Help, "help"),
		binding(m.Keys.Quit, "quit"),
	}
}

func (m Model) viewBindings() []key.Binding {
	switch m.CurrentView {
	case ViewHome:
		return []key.Binding{
			binding("j/k", "move"),
			binding("space", "toggle done"),
			binding("f/F", "filter"),
			binding("n", "new task"),
			binding("e", "edit"),
			binding("r", "reminder"),
			binding("d", "delete"),
		}
	case ViewCalendar:
		return []key.Binding{
			binding("h/l", "day"),
			binding("j/k", "week"),
			binding("[/]", "month"),
			binding("t", "today"),
			binding("n", "new task on day"),
		}
	default:
		return nil
	}
}

func binding(keys, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys), key.WithHelp(keys, desc))
}
