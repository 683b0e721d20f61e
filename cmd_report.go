package main

import (
	"git.0xdad.com/tblyler/ocutrack/ai"
	"git.0xdad.com/tblyler/ocutrack/report"
	"github.com/spf13/cobra"
)

func (c *cli) exportCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the checklist for a date as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			on, err := c.date(a, date)
			if err != nil {
				return err
			}

			checklist, err := c.checklist(a, on)
			if err != nil {
				return err
			}

			out, err := report.Export(c.now(), on, a.catalog.ActiveOn(on), checklist)
			if err != nil {
				return err
			}

			c.println(string(out))

			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "checklist date (YYYY-MM-DD), defaults to today")

	return cmd
}

func (c *cli) speakCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Say what is left on the checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			on, err := c.date(a, date)
			if err != nil {
				return err
			}

			checklist, err := c.checklist(a, on)
			if err != nil {
				return err
			}

			text := report.SpokenSummary(checklist)
			c.println(text)

			gateway, err := c.gateway(cmd.Context())
			if err != nil {
				c.log.Warn().Err(err).Msg("speech unavailable")
				return nil
			}

			speaker := ai.NewSpeaker(gateway, c.cfg.AudioDir(), c.log)
			speaker.Speak(cmd.Context(), text)

			// the process would exit before the audio is written
			speaker.Wait()

			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "checklist date (YYYY-MM-DD), defaults to today")

	return cmd
}
