package views

import (
	"fmt"
	"strings"
)

type TaskRowData struct {
	ID       string
	Title    string
	Category string
	Due      string
	Remind   string
	Done     bool
	Selected bool
}

type HomePanelData struct {
	Filter  string
	Filters []string
	Query   string
	Rows    []TaskRowData
}

type TaskDetailData struct {
	ID       string
	Title    string
	Category string
	Due      string
	Remind   string
	Memo     string
	Done     bool
}

type UpcomingRowData struct {
	Title    string
	Category string
	FireAt   string
	In       string
}

type CategoryRowData struct {
	Name   string
	Done   int
	Total  int
	Active int
	Rate   int
	Bar    string
}

type StatsPanelData struct {
	Total      int
	Done       int
	Active     int
	Rate       int
	DueToday   int
	RateBar    string
	Categories []CategoryRowData
}

type CalendarCellData struct {
	Day      int
	Count    int
	Today    bool
	Selected bool
}

type CalendarPanelData struct {
	MonthLabel string
	// Weeks are Sunday-first rows; nil cells are blanks outside the month.
	Weeks    [][]*CalendarCellData
	DayLabel string
	DayTasks []TaskRowData
}

type HelpPanelData struct {
	CurrentView string
	HelpView    string
	Markdown    string
}

type PalettePanelData struct {
	InputView string
	Hint      string
}

func RenderHomePanel(data HomePanelData) string {
	var b strings.Builder
	b.WriteString("tasks\n")
	tabs := make([]string, len(data.Filters))
	for i, f := range data.Filters {
		if f == data.Filter {
			tabs[i] = selectedStyle.Render("[" + f + "]")
		} else {
			tabs[i] = f
		}
	}
	b.WriteString("filter: " + strings.Join(tabs, " "))
	if data.Query != "" {
		b.WriteString(fmt.Sprintf("  search: %q", data.Query))
	}
	b.WriteString("\n\n")
	if len(data.Rows) == 0 {
		b.WriteString(mutedStyle.Render("no tasks here. press n or / to add one"))
		return b.String()
	}
	for _, row := range data.Rows {
		b.WriteString(renderTaskRow(row) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTaskRow(row TaskRowData) string {
	box := "[ ]"
	if row.Done {
		box = "[x]"
	}
	title := row.Title
	if row.Done {
		title = doneStyle.Render(title)
	}
	meta := []string{row.Category}
	if row.Due != "" {
		meta = append(meta, "due "+row.Due)
	}
	if row.Remind != "" {
		meta = append(meta, "⏰ "+row.Remind)
	}
	line := fmt.Sprintf("%s %s %s", box, title, mutedStyle.Render("("+strings.Join(meta, ", ")+")"))
	if row.Selected {
		return selectedStyle.Render("> ") + line
	}
	return "  " + line
}

func RenderTaskDetail(data TaskDetailData) string {
	if data.ID == "" {
		return mutedStyle.Render("no task selected")
	}
	var b strings.Builder
	b.WriteString("details\n")
	b.WriteString(fmt.Sprintf("id: %s\n", shortID(data.ID)))
	b.WriteString(fmt.Sprintf("title: %s\n", data.Title))
	b.WriteString(fmt.Sprintf("category: %s\n", data.Category))
	b.WriteString(fmt.Sprintf("due: %s\n", orDash(data.Due)))
	b.WriteString(fmt.Sprintf("reminder: %s\n", orDash(data.Remind)))
	state := "open"
	if data.Done {
		state = "done"
	}
	b.WriteString(fmt.Sprintf("state: %s", state))
	if strings.TrimSpace(data.Memo) != "" {
		b.WriteString("\n\n" + RenderMarkdown(data.Memo))
	}
	return b.String()
}

func RenderUpcomingPanel(rows []UpcomingRowData) string {
	var b strings.Builder
	b.WriteString("upcoming notifications\n\n")
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("no upcoming reminders"))
		return b.String()
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%s  %s %s\n", r.FireAt, r.Title, mutedStyle.Render("("+r.Category+", in "+r.In+")")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderStatsPanel(data StatsPanelData) string {
	var b strings.Builder
	b.WriteString("statistics\n\n")
	b.WriteString(fmt.Sprintf("total: %d  done: %d  active: %d  due today: %d\n", data.Total, data.Done, data.Active, data.DueToday))
	b.WriteString(fmt.Sprintf("completion: %d%%\n", data.Rate))
	if data.RateBar != "" {
		b.WriteString(data.RateBar + "\n")
	}
	b.WriteString("\nby category\n")
	for _, c := range data.Categories {
		b.WriteString(fmt.Sprintf("%-9s %d/%d done, %d active, %d%%\n", c.Name, c.Done, c.Total, c.Active, c.Rate))
		if c.Bar != "" {
			b.WriteString(c.Bar + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderCalendarPanel(data CalendarPanelData) string {
	var b strings.Builder
	b.WriteString("calendar: " + data.MonthLabel + "\n")
	b.WriteString(" Su  Mo  Tu  We  Th  Fr  Sa\n")
	for _, week := range data.Weeks {
		for _, cell := range week {
			b.WriteString(renderCell(cell))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + data.DayLabel + "\n")
	if len(data.DayTasks) == 0 {
		b.WriteString(mutedStyle.Render("nothing due"))
		return b.String()
	}
	for _, row := range data.DayTasks {
		b.WriteString(renderTaskRow(row) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCell(cell *CalendarCellData) string {
	if cell == nil {
		return "    "
	}
	label := fmt.Sprintf("%3d", cell.Day)
	if cell.Count > 0 {
		label = fmt.Sprintf("%2d*", cell.Day)
	}
	switch {
	case cell.Selected:
		return selectedStyle.Render(label) + " "
	case cell.Today:
		return headerStyle.Render(label) + " "
	default:
		return label + " "
	}
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("help (%s)\n", data.CurrentView))
	if data.HelpView != "" {
		b.WriteString(data.HelpView + "\n")
	}
	if md := RenderMarkdown(data.Markdown); md != "" {
		b.WriteString("\n" + md)
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderPalette(data PalettePanelData) string {
	var b strings.Builder
	b.WriteString("command\n")
	b.WriteString(data.InputView)
	if data.Hint != "" {
		b.WriteString("\n" + mutedStyle.Render(data.Hint))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
