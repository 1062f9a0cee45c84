package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/aegis/internal/db"
	"github.com/zulandar/aegis/internal/sprint"
)

func newSprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Sprint commands",
	}

	cmd.AddCommand(newSprintCompleteCmd())
	return cmd
}

func newSprintCompleteCmd() *cobra.Command {
	var (
		configPath string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "complete <sprint-id>",
		Short: "Complete a sprint and snapshot its project's diagrams",
		Long: `Marks the sprint COMPLETED, returns every issue that is not DONE to the
backlog, and appends a snapshot of each diagram in the sprint's project.
Configured notifiers are told unless --quiet is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSprintComplete(cmd, configPath, args[0], quiet)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip chat notifications")
	return cmd
}

func runSprintComplete(cmd *cobra.Command, configPath, sprintID string, quiet bool) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	var opts sprint.CompleteOpts
	if !quiet {
		if opts.Notifier, err = buildNotifier(cfg.Notify); err != nil {
			return err
		}
	}

	res, err := sprint.Complete(context.Background(), gormDB, sprintID, opts)
	if res != nil {
		fmt.Fprintf(out, "Sprint %s completed\n", res.Sprint.Name)
		fmt.Fprintf(out, "  kept:        %d\n", len(res.Kept))
		fmt.Fprintf(out, "  reassigned:  %d\n", len(res.Reassigned))
		fmt.Fprintf(out, "  snapshotted: %s\n", listOrNone(res.Snapshotted))
		fmt.Fprintf(out, "  skipped:     %s\n", listOrNone(res.Skipped))
		if len(res.Failed) > 0 {
			fmt.Fprintf(out, "  failed:      %s\n", strings.Join(res.Failed, ", "))
		}
	}
	return err
}

func listOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}
