package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Game-server webhook callbacks (for local testing)",
	}

	cmd.AddCommand(newWebhookServerReadyCmd())
	cmd.AddCommand(newWebhookMatchCompleteCmd())

	return cmd
}

func newWebhookServerReadyCmd() *cobra.Command {
	var matchID, secret string

	cmd := &cobra.Command{
		Use:   "server-ready",
		Short: "Report a game server as ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			if matchID == "" || secret == "" {
				return fmt.Errorf("--match and --secret are required")
			}

			req := map[string]string{
				"match_id":      matchID,
				"server_secret": secret,
			}
			var result WebhookResult

			if err := client.Post("/api/v1/webhooks/server-ready", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&matchID, "match", "", "Match ID (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "Server secret (required)")
	_ = cmd.MarkFlagRequired("match")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func newWebhookMatchCompleteCmd() *cobra.Command {
	var matchID, secret, winner string

	cmd := &cobra.Command{
		Use:   "match-complete",
		Short: "Report a match as complete",
		RunE: func(cmd *cobra.Command, args []string) error {
			if matchID == "" || secret == "" {
				return fmt.Errorf("--match and --secret are required")
			}

			req := map[string]string{
				"match_id":      matchID,
				"server_secret": secret,
			}
			if winner != "" {
				req["winner"] = winner
			}
			var result WebhookResult

			if err := client.Post("/api/v1/webhooks/match-complete", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&matchID, "match", "", "Match ID (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "Server secret (required)")
	cmd.Flags().StringVar(&winner, "winner", "", "Winning player ID")
	_ = cmd.MarkFlagRequired("match")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}
