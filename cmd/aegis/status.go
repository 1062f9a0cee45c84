package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/aegis/internal/bpmn"
	"github.com/zulandar/aegis/internal/db"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "BPMN element status commands",
	}

	cmd.AddCommand(newStatusRecomputeCmd())
	return cmd
}

func newStatusRecomputeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "recompute <issue-id>...",
		Short: "Recompute element statuses from the given issues",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			statuses, err := bpmn.UpdateFromIssues(gormDB, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, st := range statuses {
				fmt.Fprintf(out, "%-32s  %-12s  %3d%%\n", st.ElementID, st.Status, st.Progress)
			}
			fmt.Fprintf(out, "%d element(s) updated\n", len(statuses))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
