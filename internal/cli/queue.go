package cli

import (
	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Matchmaking queue commands",
	}

	cmd.AddCommand(newQueueJoinCmd())
	cmd.AddCommand(newQueueLeaveCmd())

	return cmd
}

func newQueueJoinCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a matchmaking queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"game_mode": mode}
			var result JoinResult

			if err := client.Post("/api/v1/matchmaking/join", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "1v1", "Game mode")

	return cmd
}

func newQueueLeaveCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Leave a matchmaking queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"game_mode": mode}
			var result LeaveResult

			if err := client.Post("/api/v1/matchmaking/leave", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "1v1", "Game mode")

	return cmd
}
