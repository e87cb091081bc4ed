package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"coursepilot/internal/api"
)

func newDatabaseCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}

	dbCmd.AddCommand(newDatabaseStatusCommand(ctx))
	dbCmd.AddCommand(newDatabaseOptimizeCommand(ctx))
	dbCmd.AddCommand(newDatabaseRollbackCommand(ctx))

	return dbCmd
}

func newDatabaseStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Validate the database and report its health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := api.GetDatabaseStatus(cmd.Context(), api.DatabaseRequest{Config: cfg, Logger: ctx.logger()})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Schema version: %d\n", status.SchemaVersion)
			fmt.Fprintf(out, "Integrity: %s\n", yesNo(status.Report.Ok))
			for _, problem := range status.Report.Errors {
				fmt.Fprintf(out, "Error: %s\n", problem)
			}
			for _, warning := range status.Report.Warnings {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}
			fmt.Fprintf(out, "Size: %d bytes across %d pages (%.1f%% fragmented)\n",
				status.Metrics.SizeBytes, status.Metrics.PageCount, status.Metrics.Fragmentation*100)
			for table, rows := range status.Metrics.TableRows {
				fmt.Fprintf(out, "  %s: %d rows\n", table, rows)
			}
			return nil
		},
	}
}

func newDatabaseOptimizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Refresh statistics and rebuild indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := api.OptimizeDatabase(cmd.Context(), api.DatabaseRequest{Config: cfg, Logger: ctx.logger()}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database optimized")
			return nil
		},
	}
}

func newDatabaseRollbackCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version>",
		Short: "Roll the schema back to an earlier version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid schema version %q", args[0])
			}
			if err := api.RollbackSchema(cmd.Context(), api.RollbackSchemaRequest{Config: cfg, Logger: ctx.logger(), TargetVersion: target}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema rolled back to version %d\n", target)
			return nil
		},
	}
}
