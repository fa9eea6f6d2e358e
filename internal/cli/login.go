package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/xrkiosk/internal/services/auth"
)

func newLoginCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as staff and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LoginResult

			if err := client.Post("/api/v1/staff/login", map[string]string{"pin": pin}, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Staff PIN (required)")
	_ = cmd.MarkFlagRequired("pin")

	return cmd
}

func newHashPINCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-pin <pin>",
		Short: "Print the STAFF_PIN_HASH value for a PIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPIN(args[0])
			if err != nil {
				return err
			}
			output(cmd).PrintMessage(hash)
			return nil
		},
	}
}
