package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/smarttodo/internal/notify"
	"github.com/sandeepkv93/smarttodo/internal/update"
)

var errNeedsLocalBackend = errors.New("watch needs notify.backend: local")

func newTUICommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *options) error {
	return withTasks(cmd, opts, func(s *session) error {
		ctx, cancel := context.WithCancel(s.ctx)
		defer cancel()

		var fired chan notify.Notification
		if s.local != nil {
			fired = make(chan notify.Notification, 16)
			s.local.OnFire(func(n notify.Notification) {
				select {
				case fired <- n:
				default:
				}
			})
			go s.local.Run(ctx)
		}

		name := s.auth.CurrentUserDisplayName()
		model := update.NewModel(s.svc, update.Options{Context: ctx, UserName: name, Fired: fired})
		defer model.Close()
		program := tea.NewProgram(model,
			tea.WithContext(ctx),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		)
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	})
}

func newWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay in the foreground and deliver local reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTasks(cmd, opts, func(s *session) error {
				if s.local == nil {
					return errNeedsLocalBackend
				}
				ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				out := cmd.OutOrStdout()
				s.local.OnFire(func(n notify.Notification) {
					fmt.Fprintf(out, "%s  %s: %s\n", n.At.Format("15:04"), n.Title, n.Body)
				})
				flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
				err := s.coord.Flush(flushCtx)
				cancel()
				if err != nil {
					s.log.WithError(err).Warn("reminders still being armed")
				}
				fmt.Fprintf(out, "watching %d pending reminder(s), ctrl+c to stop\n", s.local.Engine().Len())
				s.local.Run(ctx)
				return nil
			})
		},
	}
}

func newPermissionCommand(opts *options) *cobra.Command {
	var request bool
	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Check or request permission to deliver reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(s *session) error {
				if err := s.openBackend(cmd); err != nil {
					return err
				}
				if request {
					if err := s.backend.RequestPermission(s.ctx); err != nil {
						return err
					}
				}
				state := "not granted"
				if s.backend.HasPermission(s.ctx) {
					state = "granted"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s backend: %s\n", s.cfg.Notify.Backend, state)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&request, "request", "r", false, "Ask for permission first")
	return cmd
}
