package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sebasite/internal/notifications"
)

func newContactCommand(ctx *commandContext) *cobra.Command {
	contactCmd := &cobra.Command{
		Use:   "contact",
		Short: "Contact form relay utilities",
	}

	contactCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			notifier := notifications.NewService(cfg)
			if !notifier.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "ntfy topic not configured")
				return nil
			}
			if err := notifier.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("failed to send notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	})

	var msg notifications.Message
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Relay a contact form message",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			notifier := notifications.NewService(cfg)
			if err := notifier.SendContact(cmd.Context(), msg); err != nil {
				return err
			}
			if !notifier.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "Message valid; ntfy topic not configured so nothing was sent")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Message sent")
			return nil
		},
	}
	sendCmd.Flags().StringVar(&msg.Name, "name", "", "Sender name")
	sendCmd.Flags().StringVar(&msg.Email, "email", "", "Sender email")
	sendCmd.Flags().StringVar(&msg.Message, "message", "", "Message body")
	contactCmd.AddCommand(sendCmd)

	return contactCmd
}
