package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// readPassword returns the flag value or the first line of stdin.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newRegisterCommand(opts *options) *cobra.Command {
	var name, password string
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(s *session) error {
				if err := s.auth.SignUp(s.ctx, args[0], pw, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", s.auth.CurrentUserDisplayName())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name (defaults to the part of the email before @)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when empty)")
	return cmd
}

func newLoginCommand(opts *options) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(s *session) error {
				if err := s.auth.SignIn(s.ctx, args[0], pw); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", s.auth.CurrentUserDisplayName())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when empty)")
	return cmd
}

func newLogoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(s *session) error {
				s.auth.SignOut()
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(s *session) error {
				if !s.auth.IsLoggedIn() {
					fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", s.auth.CurrentUserDisplayName(), s.auth.CurrentUserEmail())
				return nil
			})
		},
	}
}
