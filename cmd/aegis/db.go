package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/aegis/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBSeedCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every Aegis table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables on %s store\n", len(db.AllModels()), cfg.Database.Driver)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newDBSeedCmd() *cobra.Command {
	var (
		configPath string
		opts       db.SeedOpts
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a starter dataset",
		Long: `Creates an admin user, a project with an active sprint, and a sample diagram
whose Activity_1 element is linked both ways to a user story.

Does nothing when the admin email already exists. The password defaults to
$AEGIS_ADMIN_PASSWORD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.AdminPassword == "" {
				opts.AdminPassword = os.Getenv("AEGIS_ADMIN_PASSWORD")
			}
			return runDBSeed(cmd, configPath, opts)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.AdminName, "name", "Admin", "admin display name")
	cmd.Flags().StringVar(&opts.AdminEmail, "email", "admin@example.com", "admin email")
	cmd.Flags().StringVar(&opts.AdminPassword, "password", "", "admin password")
	return cmd
}

func runDBSeed(cmd *cobra.Command, configPath string, opts db.SeedOpts) error {
	out := cmd.OutOrStdout()

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	res, err := db.Seed(gormDB, opts)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintf(out, "Admin %s already exists, nothing seeded\n", opts.AdminEmail)
		return nil
	}
	fmt.Fprintf(out, "Seeded admin %s (%s)\n", res.Admin.Email, res.Admin.ID)
	fmt.Fprintf(out, "  project  %s  %s\n", res.Project.ID, res.Project.Name)
	fmt.Fprintf(out, "  sprint   %s  %s\n", res.Sprint.ID, res.Sprint.Name)
	fmt.Fprintf(out, "  diagram  %s  %s\n", res.Diagram.ID, res.Diagram.Name)
	fmt.Fprintf(out, "  issue    %s  %s\n", res.Issue.ID, res.Issue.Title)
	return nil
}
