package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"git.0xdad.com/tblyler/ocutrack/clock"
	"git.0xdad.com/tblyler/ocutrack/db"
	"git.0xdad.com/tblyler/ocutrack/report"
	"github.com/spf13/cobra"
)

func (c *cli) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Work with the daily checklist",
	}

	cmd.AddCommand(c.taskListCmd())
	cmd.AddCommand(c.taskToggleCmd())
	cmd.AddCommand(c.taskHistoryCmd())

	return cmd
}

func (c *cli) taskListCmd() *cobra.Command {
	var (
		date    string
		pending bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the checklist for a date",
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

			c.printChecklist(on, checklist, pending)

			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "checklist date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&pending, "pending", false, "only show doses not yet taken")

	return cmd
}

// printChecklist numbers tasks by their position in the full checklist, so an
// index shown with --pending still toggles the right task.
func (c *cli) printChecklist(date string, checklist []db.DailyTask, pending bool) {
	progress := report.Progress(checklist)
	c.println(fmt.Sprintf("%s: %d/%d doses taken (%d%%)", date, progress.Completed, progress.Total, progress.Percent))

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for i, task := range checklist {
		if pending && task.Completed {
			continue
		}

		mark := "[ ]"
		if task.Completed {
			mark = "[x]"
		}

		target := string(task.Eye)
		if target == "" {
			target = "Tablet"
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i, mark, task.Time, task.Name, task.Dosage, target)
	}
	w.Flush()
}

func (c *cli) taskToggleCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "toggle <index|id>",
		Short: "Mark a dose taken, or not taken again",
		Args:  cobra.ExactArgs(1),
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

			if on > c.today(a) {
				return fmt.Errorf("cannot mark doses for %s before the day arrives", on)
			}

			if _, err := c.checklist(a, on); err != nil {
				return err
			}

			var task db.DailyTask
			if index, convErr := strconv.Atoi(args[0]); convErr == nil {
				task, err = a.state.Toggle(on, index)
			} else {
				task, err = a.state.ToggleByID(on, args[0])
			}

			if err != nil {
				return err
			}

			state := "not taken"
			if task.Completed {
				state = "taken"
			}

			c.println(fmt.Sprintf("%s %s on %s marked %s", task.Name, task.Time, on, state))

			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "checklist date (YYYY-MM-DD), defaults to today")

	return cmd
}

func (c *cli) taskHistoryCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show adherence for recent days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("invalid --days %d, want at least 1", days)
			}

			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			today := c.today(a)

			from, err := clock.AddDays(today, -(days - 1))
			if err != nil {
				return err
			}

			snapshot := a.state.Snapshot()

			w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTAKEN\tTOTAL\tPERCENT")

			for _, date := range a.state.Dates() {
				if date < from || date > today {
					continue
				}

				progress := report.Progress(snapshot[date])
				fmt.Fprintf(w, "%s\t%d\t%d\t%d%%\n", date, progress.Completed, progress.Total, progress.Percent)
			}

			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "number of days up to today")

	return cmd
}
