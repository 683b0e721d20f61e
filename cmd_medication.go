package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"git.0xdad.com/tblyler/ocutrack/ai"
	"git.0xdad.com/tblyler/ocutrack/catalog"
	"git.0xdad.com/tblyler/ocutrack/db"
	"github.com/spf13/cobra"
)

func (c *cli) medicationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medication",
		Short: "Manage the medication catalog",
	}

	cmd.AddCommand(c.medicationAddCmd())
	cmd.AddCommand(c.medicationListCmd())
	cmd.AddCommand(c.medicationSeedCmd())

	return cmd
}

func (c *cli) medicationAddCmd() *cobra.Command {
	var scan string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a medication course from STDIN prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			var scanned ai.LabelFields
			if scan != "" {
				scanned = c.scanLabel(cmd, scan)
			}

			today := c.today(a)

			medication, err := c.promptMedication(today, scanned)
			if err != nil {
				return err
			}

			if err := a.catalog.Add(medication); err != nil {
				return err
			}

			if err := a.state.Ensure(today, a.catalog.List()); err != nil {
				return err
			}

			c.println("created medication id", medication.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&scan, "scan", "", "photo of the label to prefill the prompts from")

	return cmd
}

// scanLabel prefills from a label photo. Any failure falls back to manual entry.
func (c *cli) scanLabel(cmd *cobra.Command, path string) ai.LabelFields {
	image, err := os.ReadFile(path)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("failed to read label photo")
		c.println("could not read the label, please enter the details by hand")
		return ai.LabelFields{}
	}

	gateway, err := c.gateway(cmd.Context())
	if err != nil {
		c.log.Warn().Err(err).Msg("label scanning unavailable")
		c.println("could not read the label, please enter the details by hand")
		return ai.LabelFields{}
	}

	fields, err := gateway.AnalyzeLabelImage(cmd.Context(), image, http.DetectContentType(image))
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("failed to analyze label")
		c.println("could not read the label, please enter the details by hand")
		return ai.LabelFields{}
	}

	return fields
}

func (c *cli) promptMedication(today string, scanned ai.LabelFields) (db.Medication, error) {
	medication := db.Medication{ID: catalog.NewID()}

	var err error

	if medication.Name, err = c.prompt("name", scanned.Name); err != nil {
		return medication, err
	}

	kind := db.KindDrops
	if scanned.Kind != "" {
		kind = scanned.Kind
	}

	answer, err := c.prompt("type (DROPS/TABLET)", string(kind))
	if err != nil {
		return medication, err
	}
	medication.Kind = db.Kind(strings.ToUpper(answer))

	if medication.Dosage, err = c.prompt("dosage", scanned.Dosage); err != nil {
		return medication, err
	}

	frequency := "1"
	if scanned.Frequency > 0 {
		frequency = strconv.Itoa(scanned.Frequency)
	}

	if answer, err = c.prompt("doses per day", frequency); err != nil {
		return medication, err
	}

	medication.Frequency, err = strconv.Atoi(answer)
	if err != nil || medication.Frequency < 0 {
		return medication, fmt.Errorf("invalid doses per day %q", answer)
	}

	if answer, err = c.prompt("times (comma separated)", strings.Join(catalog.DefaultTimes(medication.Frequency), ", ")); err != nil {
		return medication, err
	}
	medication.Times = splitTimes(answer)

	if medication.StartDate, err = c.prompt("start date (YYYY-MM-DD)", today); err != nil {
		return medication, err
	}

	if medication.EndDate, err = c.prompt("end date (YYYY-MM-DD)", ""); err != nil {
		return medication, err
	}

	eye := ""
	if medication.Kind == db.KindDrops {
		eye = string(scanned.Eye)
		if eye == "" {
			eye = string(db.EyeBoth)
		}
	}

	if answer, err = c.prompt("eye (Left/Right/Both, blank for none)", eye); err != nil {
		return medication, err
	}
	medication.Eye = parseEye(answer)

	if medication.Notes, err = c.prompt("notes", ""); err != nil {
		return medication, err
	}

	return medication, nil
}

func splitTimes(s string) []string {
	var times []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			times = append(times, t)
		}
	}

	return times
}

// parseEye accepts any case; unknown values are kept so validation reports them
func parseEye(s string) db.Eye {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "left":
		return db.EyeLeft
	case "right":
		return db.EyeRight
	case "both":
		return db.EyeBoth
	default:
		return db.Eye(s)
	}
}

func (c *cli) medicationListCmd() *cobra.Command {
	var date, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List medications and their status on a date",
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

			var medications []db.Medication
			switch catalog.Status(strings.ToUpper(status)) {
			case "":
				medications = a.catalog.List()
			case catalog.StatusActive:
				medications = a.catalog.ActiveOn(on)
			case catalog.StatusCompleted:
				medications = a.catalog.CompletedBefore(on)
			case catalog.StatusUpcoming:
				medications = a.catalog.UpcomingAfter(on)
			default:
				return fmt.Errorf("invalid status %q, want active, completed or upcoming", status)
			}

			w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tDOSAGE\tTIMES\tSTART\tEND\tEYE\tSTATUS")

			for _, m := range medications {
				eye := string(m.Eye)
				if eye == "" {
					eye = "-"
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					m.ID, m.Name, m.Kind, m.Dosage, strings.Join(m.Times, ", "),
					m.StartDate, m.EndDate, eye, catalog.StatusOn(m, on))
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "reference date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&status, "status", "", "only list active, completed or upcoming courses")

	return cmd
}

func (c *cli) medicationSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the built-in catalog into an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if count := len(a.catalog.List()); count > 0 {
				c.println("catalog already has", count, "medications")
				return nil
			}

			if err := a.catalog.Load(true); err != nil {
				return err
			}

			if err := a.state.Ensure(c.today(a), a.catalog.List()); err != nil {
				return err
			}

			c.println("seeded", len(a.catalog.List()), "medications")

			return nil
		},
	}
}
