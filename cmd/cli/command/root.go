package command

// root.go defines the root command and the flags shared by every subcommand.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL string // API root, e.g. http://localhost:8080/api/v1
	token  string // bearer token for authenticated calls
)

var rootCmd = &cobra.Command{
	Use:   "yamdbctl",
	Short: "yamdbctl - YaMDb administration and API client",
	Long: `yamdbctl manages a YaMDb deployment and talks to its API. It can:
- apply or roll back database migrations
- create administrator accounts
- sign up and exchange confirmation codes for tokens
- browse titles

Use "yamdbctl <command> --help" to see the flags of a command.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("YAMDB_API_URL", "http://localhost:8080/api/v1"), "API root URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("YAMDB_TOKEN"), "bearer token (defaults to $YAMDB_TOKEN)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(titlesCmd)
	rootCmd.AddCommand(meCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
