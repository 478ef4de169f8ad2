package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Issue an admin session token",
		Long:  "Checks the admin password and issues a session token recorded in the local cache. A running daemon sharing the cache accepts it as a bearer token. Without --password the password is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("password") {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			return ctx.withRuntime(func(rt *runtime) error {
				sess, err := rt.session(cmd)
				if err != nil {
					return err
				}
				token, err := sess.Login(cmd.Context(), password)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
				fmt.Fprintf(cmd.OutOrStdout(), "Token: %s\n", token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke admin session tokens",
		Long:  "Revokes the token given with --token, or every issued admin token when it is omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				sess, err := rt.session(cmd)
				if err != nil {
					return err
				}
				if token != "" {
					if err := sess.Logout(cmd.Context(), token); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
					return nil
				}
				if err := sess.RevokeAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out all admin sessions")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Revoke only this session token")
	return cmd
}

func newLanguageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "language [en|tr]",
		Short: "Show or set the site's default display language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				sess, err := rt.session(cmd)
				if err != nil {
					return err
				}
				lang := sess.Language()
				if len(args) == 1 {
					lang, err = sess.SetLanguage(cmd.Context(), args[0])
					if err != nil {
						return err
					}
				}
				view := map[string]string{"language": lang}
				return ctx.emit(cmd, view, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, lang)
					return err
				})
			})
		},
	}
}
