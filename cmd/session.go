package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wsfetch/internal"
)

func newLoginCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in to webshare.cz and store the session token for later commands.

The password is taken from WEBSHARE_PASSWORD, or read as one line from stdin.
Logging in again while a stored session exists does nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := opts.openStore()
			if err != nil {
				return err
			}
			defer tokens.Close()

			account, err := opts.account(tokens)
			if err != nil {
				return err
			}

			client, err := opts.newClient()
			if err != nil {
				return err
			}

			if token, ok, err := tokens.LoadToken(account); err != nil {
				return err
			} else if ok {
				if err := client.Restore(token); err != nil {
					return err
				}
				printLine(cmd, opts.config.QuietMode, "Already logged in as %s", account)
				return nil
			}

			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			if err := client.Login(cmd.Context(), account, password); err != nil {
				return reportError(err)
			}

			token, _ := client.Token()
			if err := tokens.SaveToken(account, token); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			printLine(cmd, opts.config.QuietMode, "Logged in as %s", account)
			return nil
		},
	}
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := opts.openStore()
			if err != nil {
				return err
			}
			defer tokens.Close()

			account, err := opts.account(tokens)
			if err != nil {
				return err
			}

			token, ok, err := tokens.LoadToken(account)
			if err != nil {
				return err
			}
			if !ok {
				printLine(cmd, opts.config.QuietMode, "Not logged in as %s", account)
				return nil
			}

			client, err := opts.newClient()
			if err != nil {
				return err
			}
			if err := client.Restore(token); err != nil {
				return err
			}

			if err := client.Logout(cmd.Context()); err != nil {
				// a refusal means the server no longer knows the token
				if !internal.IsKind(err, internal.ErrAPI) {
					return reportError(err)
				}
				internal.LogWarn("Server rejected the stored session of %s: %v", account, err)
				if err := tokens.DeleteToken(account); err != nil {
					return fmt.Errorf("failed to forget session: %w", err)
				}
				printLine(cmd, opts.config.QuietMode, "Session of %s had already ended, stored token removed", account)
				return nil
			}

			if err := tokens.DeleteToken(account); err != nil {
				return fmt.Errorf("failed to forget session: %w", err)
			}

			printLine(cmd, opts.config.QuietMode, "Logged out %s", account)
			return nil
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show which account has a stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := opts.openStore()
			if err != nil {
				return err
			}
			defer tokens.Close()

			account, err := opts.account(tokens)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}

			_, ok, err := tokens.LoadToken(account)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (logged in)\n", account)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (not logged in)\n", account)
			}
			return nil
		},
	}
}

// readPassword takes the password from WEBSHARE_PASSWORD or the first line of in
func readPassword(in io.Reader) (string, error) {
	if password := internal.GetEnvWithDefault("WEBSHARE_PASSWORD", ""); password != "" {
		return password, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", internal.NewValidationError("password", "no password given").
			WithSuggestion("Set WEBSHARE_PASSWORD or pipe the password on stdin")
	}
	return password, nil
}
