package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"yamdb/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadDBEnv()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(e.DatabaseURL, cliLogger()); err != nil {
			return err
		}
		fmt.Println("✓ Schema is up to date.")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		e, err := loadDBEnv()
		if err != nil {
			return err
		}
		if err := database.RollbackMigrations(e.DatabaseURL, steps, cliLogger()); err != nil {
			return err
		}
		fmt.Printf("✓ Rolled back %d migration(s).\n", steps)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)

	migrateDownCmd.Flags().Int("steps", 1, "number of migrations to roll back")
}
