package main

import (
	"context"
	"strings"

	"git.0xdad.com/tblyler/ocutrack/reminder"
	"github.com/spf13/cobra"
)

// stdinPrompter asks on the terminal
type stdinPrompter struct {
	c *cli
}

func (p stdinPrompter) Prompt(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	answer, err := p.c.prompt("allow medication alerts? (y/n)", "n")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (c *cli) permissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Manage permission to send alerts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "request",
		Short: "Ask for permission unless it was already answered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			permission, err := reminder.RequestPermission(cmd.Context(), a.badger, stdinPrompter{c: c}, c.notifier())
			if err != nil && permission != reminder.PermissionGranted {
				return err
			}

			if err != nil {
				c.log.Warn().Err(err).Msg("failed to send confirmation alert")
			}

			c.println("alerts:", permission)

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether alerts are allowed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			stored, err := a.badger.Permission()
			if err != nil {
				return err
			}

			c.println("alerts:", reminder.ParsePermission(stored))

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke",
		Short: "Turn alerts off until permission is requested again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.badger.SetPermission(string(reminder.PermissionDefault)); err != nil {
				return err
			}

			c.println("alerts:", reminder.PermissionDefault)

			return nil
		},
	})

	return cmd
}
