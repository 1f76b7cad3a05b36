package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree. Running it with no subcommand
// opens the terminal UI.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "smarttodo",
		Short: "smarttodo - to-do list with timed reminders",
		Long: `smarttodo keeps a to-do list with optional reminders.

Reminders are delivered by the configured backend: the local engine
(desktop notifications while the TUI or "watch" runs), Google Calendar
events, or none.`,
		RunE:          func(cmd *cobra.Command, _ []string) error { return runTUI(cmd, opts) },
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config.yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newTUICommand(opts),
		newAddCommand(opts),
		newListCommand(opts),
		newDoneCommand(opts),
		newEditCommand(opts),
		newRemoveCommand(opts),
		newRemindCommand(opts),
		newUpcomingCommand(opts),
		newStatsCommand(opts),
		newCalendarCommand(opts),
		newWatchCommand(opts),
		newRegisterCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newPermissionCommand(opts),
	)
	return root
}

// Execute runs the root command
func Execute(version string) error {
	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
