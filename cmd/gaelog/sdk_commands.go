package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gaelog/internal/deps"
	"gaelog/internal/gcloud"
	"gaelog/internal/ipc"
	"gaelog/internal/sdk"
)

func toDependencyStatuses(statuses []deps.Status) []ipc.DependencyStatus {
	converted := make([]ipc.DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		converted = append(converted, ipc.DependencyStatus{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Detail:      status.Detail,
		})
	}
	return converted
}

func newSDKCommand(ctx *commandContext) *cobra.Command {
	sdkCmd := &cobra.Command{
		Use:   "sdk",
		Short: "Manage the Google Cloud SDK installation",
	}
	sdkCmd.AddCommand(newSDKStatusCommand(ctx))
	sdkCmd.AddCommand(newSDKInstallCommand(ctx))
	return sdkCmd
}

func newSDKStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show SDK and package manager availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			statuses := deps.CheckBinaries(deps.Defaults(cfg.GCloudBinary()))
			for _, line := range dependencyLines(toDependencyStatuses(statuses), colorize) {
				fmt.Fprintln(stdout, line)
			}

			if sdk.Installed(cfg.GCloudBinary()) {
				version, err := gcloud.Version(cmd.Context(), cfg.GCloudBinary())
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, version)
			}
			return nil
		},
	}
}

func newSDKInstallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the Google Cloud SDK via the platform package manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()

			if sdk.Installed(cfg.GCloudBinary()) {
				fmt.Fprintln(stdout, "Google Cloud SDK is already installed")
				return nil
			}

			if err := sdk.Install(cmd.Context(), func(line string) {
				fmt.Fprintln(stdout, line)
			}); err != nil {
				return fmt.Errorf("install Google Cloud SDK: %w", err)
			}
			fmt.Fprintln(stdout, "Google Cloud SDK installed successfully")
			return nil
		},
	}
}
