package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Scamwatch/internal/db"
	"github.com/soaringjerry/Scamwatch/internal/logging"
	"github.com/soaringjerry/Scamwatch/internal/utils"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:          "scamctl",
		Short:        "Scamwatch operator tool",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Init(cmd.ErrOrStderr(), logLevel, "text")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", utils.SafeEnv("SCAMWATCH_LOG_LEVEL", "warn"), "log level (debug|info|warn|error)")
	root.AddCommand(newAssessCmd(), newScoreCmd(), newSweepCmd(), newAdminCmd(), newCheckCmd(), newExportCmd())
	return root
}

// dbFlag registers --db on cmd, defaulting to SCAMWATCH_DB_PATH.
func dbFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVar(path, "db", utils.SafeEnv("SCAMWATCH_DB_PATH", "./data/scamwatch.db"), "path to the SQLite database")
}

func openDB(path string) (*db.SQLiteStore, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
	}
	return db.Open(path, utils.SafeEnv("SCAMWATCH_MIGRATIONS_DIR", ""))
}
