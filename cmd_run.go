package main

import (
	"os"
	"os/signal"
	"syscall"

	"git.0xdad.com/tblyler/ocutrack/reminder"
	"github.com/spf13/cobra"
)

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Send dose reminders until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			interval, err := c.cfg.TickInterval()
			if err != nil {
				return err
			}

			scheduler := reminder.New(a.catalog, a.state, c.notifier(), a.badger, reminder.Options{
				TickInterval:  interval,
				LookaheadSpec: c.cfg.LookaheadCron(),
				Location:      a.location,
			}, c.log)

			stored, err := a.badger.Permission()
			if err != nil {
				return err
			}

			scheduler.SetPermission(reminder.ParsePermission(stored))
			if scheduler.Permission() != reminder.PermissionGranted {
				c.log.Warn().Str("permission", string(scheduler.Permission())).Msg("alerts are off, run `ocutrack permission request` to turn them on")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return scheduler.Run(ctx)
		},
	}
}
