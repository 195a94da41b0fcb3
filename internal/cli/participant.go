package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newParticipantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participant",
		Short: "Participant identity commands",
	}

	cmd.AddCommand(newParticipantGuestCmd())
	cmd.AddCommand(newParticipantMeCmd())

	return cmd
}

func newParticipantGuestCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "guest",
		Short: "Create a guest participant",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"display_name": name}
			var result AuthResult

			if err := client.Post("/api/v1/participants/guest", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newParticipantMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show current participant info and balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Participant

			if err := client.Get("/api/v1/participants/me", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
