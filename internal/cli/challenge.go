package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChallengeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Open-challenge book commands",
	}

	cmd.AddCommand(newChallengeCreateCmd())
	cmd.AddCommand(newChallengeListCmd())
	cmd.AddCommand(newChallengeAcceptCmd())
	cmd.AddCommand(newChallengeWithdrawCmd())

	return cmd
}

func newChallengeCreateCmd() *cobra.Command {
	var stake int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a challenge at a stake",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stake <= 0 {
				return fmt.Errorf("--stake must be positive")
			}

			req := map[string]int64{"stake": stake}
			var result Challenge

			if err := client.Post("/api/v1/challenges", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&stake, "stake", 0, "Stake amount (required)")
	_ = cmd.MarkFlagRequired("stake")

	return cmd
}

func newChallengeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open challenges",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Challenge

			if err := client.Get("/api/v1/challenges", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(ChallengeList(result))
			return nil
		},
	}
}

func newChallengeAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept an open challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Match

			if err := client.Post("/api/v1/challenges/"+args[0]+"/accept", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newChallengeWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <id>",
		Short: "Withdraw your own open challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/challenges/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Challenge withdrawn")
			return nil
		},
	}
}
