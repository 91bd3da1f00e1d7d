package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Garogaro1/ticktick-clone-sub000/internal/config"
	"github.com/Garogaro1/ticktick-clone-sub000/internal/storage"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll the schema back instead of forward")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if migrateDown {
		if err := storage.MigrateDown(db); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Println("schema rolled back")
		return nil
	}
	if err := storage.MigrateUp(db); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	fmt.Println("schema up to date")
	return nil
}
