package cli

import (
	"github.com/spf13/cobra"

	"github.com/comate/comate/internal/services/auth"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin commands",
	}

	cmd.AddCommand(newAdminBatchMatchCmd())
	cmd.AddCommand(newAdminHashKeyCmd())

	return cmd
}

func newAdminBatchMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch-match",
		Short: "Pair every unmatched user by quiz similarity",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BatchResult

			if err := client.Post("/api/v1/admin/batch-match", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newAdminHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key KEY",
		Short: "Print the ADMIN_KEY_HASH value for an admin key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashKey(args[0])
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage(hash)
			return nil
		},
	}
}
