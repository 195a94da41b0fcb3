package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match and room-session commands",
	}

	cmd.AddCommand(newMatchListCmd())
	cmd.AddCommand(newMatchGetCmd())
	cmd.AddCommand(newMatchJoinCmd())
	cmd.AddCommand(newMatchCompleteCmd())
	cmd.AddCommand(newMatchCancelCmd())
	cmd.AddCommand(newMatchResolveCmd())

	return cmd
}

func newMatchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []MatchSummary

			if err := client.Get("/api/v1/matches", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(MatchList(result))
			return nil
		},
	}
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a match",
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

func newMatchJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <id>",
		Short: "Join a match's room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Post("/api/v1/matches/"+args[0]+"/join", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchCompleteCmd() *cobra.Command {
	var winner string

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Declare a match result (requires arbiter key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if winner == "" {
				return fmt.Errorf("--winner is required")
			}

			req := map[string]string{"winner_user_id": winner}
			var result Match

			if err := client.Post("/api/v1/matches/"+args[0]+"/complete", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&winner, "winner", "", "Winning user id (required)")
	_ = cmd.MarkFlagRequired("winner")

	return cmd
}

func newMatchCancelCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Request cancellation of an in-progress match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"reason": reason}
			var result Cancellation

			if err := client.Post("/api/v1/matches/"+args[0]+"/cancellation", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason for the request")

	return cmd
}

func newMatchResolveCmd() *cobra.Command {
	var decision string

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a pending cancellation (requires arbiter key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if decision != "approved" && decision != "rejected" {
				return fmt.Errorf("--decision must be approved or rejected")
			}

			req := map[string]string{"decision": decision}
			var result Match

			if err := client.Post("/api/v1/matches/"+args[0]+"/cancellation/resolve", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&decision, "decision", "", "approved or rejected (required)")
	_ = cmd.MarkFlagRequired("decision")

	return cmd
}
