package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/aegis/internal/db"
	"github.com/zulandar/aegis/internal/reconcile"
)

func newReconcileCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair issue and BPMN element links that diverged",
		Long: `Makes both sides of every issue/element link agree by taking their union,
drops element entries that name deleted issues, and recomputes the status of
every element it touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			rep, err := reconcile.Run(gormDB, reconcile.Opts{DryRun: dryRun})
			if err != nil {
				return err
			}
			prefix := ""
			if dryRun {
				prefix = "(dry run) "
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", prefix, rep)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	return cmd
}
