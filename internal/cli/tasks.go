package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/smarttodo/internal/commands"
	"github.com/sandeepkv93/smarttodo/internal/model"
	"github.com/sandeepkv93/smarttodo/internal/views"
)

const optionsHelp = `Options use key:value form:
  due:today|tomorrow|mon..sun|YYYY-MM-DD   (due:none clears, edit only)
  at:HH:mm                                 turns the reminder on
  cat:academic|work|personal|other
  memo:words_joined_by_underscores`

// runLine feeds a palette-style command line through the same handlers the
// TUI uses.
func runLine(cmd *cobra.Command, s *session, line string) error {
	parsed, err := commands.Parse(line, model.Today())
	if err != nil {
		return err
	}
	res, err := commands.Execute(parsed, commands.ServiceHandlers(s.ctx, s.svc, nil))
	if err != nil {
		return err
	}
	if res.TaskID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]\n", res.Message, shortID(res.TaskID))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}

func lineCommand(opts *options, use, short string, args cobra.PositionalArgs, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  short + "\n\n" + optionsHelp,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTasks(cmd, opts, func(s *session) error {
				return runLine(cmd, s, verb+" "+strings.Join(args, " "))
			})
		},
	}
}

func newAddCommand(opts *options) *cobra.Command {
	return lineCommand(opts, "add <title> [options...]", "Add a task", cobra.MinimumNArgs(1), string(commands.TypeAdd))
}

func newDoneCommand(opts *options) *cobra.Command {
	return lineCommand(opts, "done <id>", "Toggle a task between done and open", cobra.ExactArgs(1), string(commands.TypeDone))
}

func newRemoveCommand(opts *options) *cobra.Command {
	cmd := lineCommand(opts, "rm <id>", "Delete a task and cancel its reminder", cobra.ExactArgs(1), string(commands.TypeRemove))
	cmd.Aliases = []string{"delete"}
	return cmd
}

func newEditCommand(opts *options) *cobra.Command {
	return lineCommand(opts, "edit <id> [title] [options...]", "Change a task", cobra.MinimumNArgs(2), string(commands.TypeEdit))
}

func newRemindCommand(opts *options) *cobra.Command {
	return lineCommand(opts, "remind <id> <HH:mm|off>", "Set or clear a task reminder", cobra.ExactArgs(2), string(commands.TypeRemind))
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list [all|today|upcoming|done] [query...]",
		Short: "List tasks",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := model.FilterAll
			var query string
			if len(args) > 0 {
				f, err := model.ParseFilter(args[0])
				if err != nil {
					return err
				}
				filter = f
				query = strings.Join(args[1:], " ")
			}
			return withTasks(cmd, opts, func(s *session) error {
				tasks := model.Select(s.svc.Tasks(), filter, query)
				rows := make([]views.TaskRowData, 0, len(tasks))
				for _, t := range tasks {
					rows = append(rows, views.TaskRow(t))
				}
				fmt.Fprintln(cmd.OutOrStdout(), views.RenderTaskTable(rows))
				return nil
			})
		},
	}
}

func newUpcomingCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "List reminders that have not fired yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTasks(cmd, opts, func(s *session) error {
				now := time.Now()
				upcoming := model.UpcomingReminders(s.svc.Tasks(), now)
				if len(upcoming) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no upcoming reminders")
					return nil
				}
				for _, u := range upcoming {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s (%s)\n",
						u.FireAt.Format("Mon Jan 2 15:04"), shortID(u.Task.ID), u.Task.Title, u.Task.Category)
				}
				return nil
			})
		},
	}
}

func newStatsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTasks(cmd, opts, func(s *session) error {
				tasks := s.svc.Tasks()
				summary := model.Summarize(tasks, model.Today())
				data := views.StatsPanelData{
					Total:    summary.Total,
					Done:     summary.Done,
					Active:   summary.Active,
					Rate:     summary.Rate,
					DueToday: summary.DueToday,
				}
				for _, c := range model.CategoryStats(tasks) {
					data.Categories = append(data.Categories, views.CategoryRowData{
						Name:   string(c.Category),
						Done:   c.Done,
						Total:  c.Total,
						Active: c.Active(),
						Rate:   c.Rate(),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), views.RenderStatsPanel(data))
				return nil
			})
		},
	}
}

func newCalendarCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [YYYY-MM-DD]",
		Short: "Show a month grid with the tasks due on a day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			today := model.Today()
			day := today
			if len(args) == 1 {
				d, err := model.ParseDate(args[0])
				if err != nil {
					return err
				}
				day = d
			}
			return withTasks(cmd, opts, func(s *session) error {
				month := model.NewDate(day.Year, day.Month, 1)
				fmt.Fprintln(cmd.OutOrStdout(), views.RenderCalendarPanel(views.CalendarMonth(s.svc.Tasks(), month, day, today)))
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
