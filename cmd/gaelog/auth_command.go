package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gaelog/internal/gcloud"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Google Cloud authentication",
	}

	authCmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Run the interactive gcloud login flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if err := gcloud.AuthLogin(cmd.Context(), cfg.GCloudBinary()); err != nil {
				return fmt.Errorf("gcloud auth login: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authentication complete")
			return nil
		},
	})

	return authCmd
}
