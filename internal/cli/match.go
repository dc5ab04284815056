package cli

import (
	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match inspection commands",
	}

	cmd.AddCommand(newMatchGetCmd())

	return cmd
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <match-id>",
		Short: "Show a match you are a participant in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Match

			if err := client.Get("/api/v1/matches/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
