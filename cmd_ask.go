package main

import (
	"fmt"
	"strings"

	"git.0xdad.com/tblyler/ocutrack/ai"
	"github.com/spf13/cobra"
)

func (c *cli) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask about a medication, answered with cited sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			gateway, err := c.gateway(cmd.Context())
			if err != nil {
				c.log.Warn().Err(err).Msg("assistant unavailable")
				c.println(ai.FallbackAnswer)
				return nil
			}

			answer, err := gateway.AskMedicalQuestion(cmd.Context(), question)
			if err != nil {
				c.log.Warn().Err(err).Msg("failed to answer question")
				c.println(ai.FallbackAnswer)
				return nil
			}

			c.printAnswer(answer)

			return nil
		},
	}
}

func (c *cli) printAnswer(answer ai.Answer) {
	c.println(answer.Text)

	if len(answer.Sources) == 0 {
		return
	}

	c.println()
	c.println("Sources:")
	for i, source := range answer.Sources {
		c.println(fmt.Sprintf("  %d. %s %s", i+1, source.Title, source.URL))
	}
}
