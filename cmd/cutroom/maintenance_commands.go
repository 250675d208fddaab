package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutroom/internal/access"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale temporary render artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(acc access.Access) error {
				result, err := acc.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Removed %d stale artifact(s)\n", len(result.Removed))
				for _, path := range result.Removed {
					fmt.Fprintf(out, "  - %s\n", path)
				}
				for _, failure := range result.Errors {
					fmt.Fprintf(out, "  ! %s: %v\n", failure.Path, failure.Error)
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d artifact(s) could not be removed", len(result.Errors))
				}
				return nil
			})
		},
	}
}

func newRecoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Reset work interrupted by a crash",
		Long: "Moves videos stuck in processing back to uploaded and marks edits stuck\n" +
			"in processing as failed. Videos with a render or edit still running are\n" +
			"left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(func(acc access.Access) error {
				result, err := acc.Recover(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d video(s) and %d edit(s)\n", result.Videos, result.Edits)
				if len(result.Skipped) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d busy video(s): %s\n", len(result.Skipped), joinIDs(result.Skipped))
				}
				return nil
			})
		},
	}
}
