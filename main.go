package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"git.0xdad.com/tblyler/ocutrack/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func errLog(messages ...interface{}) {
	fmt.Fprintln(os.Stderr, messages...)
}

type cli struct {
	cfg config.Config
	log zerolog.Logger
	in  *bufio.Scanner
	out io.Writer
	// now is overridden in tests
	now func() time.Time
}

func main() {
	c := &cli{
		cfg: config.NewEnv(),
		log: zerolog.Nop(),
		in:  bufio.NewScanner(os.Stdin),
		out: os.Stdout,
		now: time.Now,
	}

	if err := c.rootCmd().ExecuteContext(context.Background()); err != nil {
		errLog(err.Error())
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ocutrack",
		Short:         "Eye drop and tablet schedule tracker with reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(c.cfg.LogLevel(), c.cfg.LogFormat(), os.Stderr)
			if err != nil {
				return err
			}

			c.log = logger

			return nil
		},
	}

	root.SetOut(c.out)

	root.AddCommand(c.runCmd())
	root.AddCommand(c.medicationCmd())
	root.AddCommand(c.taskCmd())
	root.AddCommand(c.exportCmd())
	root.AddCommand(c.speakCmd())
	root.AddCommand(c.askCmd())
	root.AddCommand(c.permissionCmd())

	return root
}

func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q, want console or json", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// prompt reads one line from STDIN. A blank answer or end of input gives fallback.
func (c *cli) prompt(label, fallback string) (string, error) {
	if fallback != "" {
		fmt.Fprintf(c.out, "%s [%s]: ", label, fallback)
	} else {
		fmt.Fprintf(c.out, "%s: ", label)
	}

	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", fmt.Errorf("failed to get %s from STDIN prompt: %w", label, err)
		}

		return fallback, nil
	}

	answer := string(bytes.TrimSpace(c.in.Bytes()))
	if answer == "" {
		return fallback, nil
	}

	return answer, nil
}

func (c *cli) println(messages ...interface{}) {
	fmt.Fprintln(c.out, messages...)
}
