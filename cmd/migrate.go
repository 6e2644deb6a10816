package cmd

import (
	"fmt"

	"vault-inventory/core/config"
	"vault-inventory/core/database"
	"vault-inventory/core/logger"
	"vault-inventory/feature/catalog"
	"vault-inventory/feature/inventory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// migrateCmd creates or updates the database schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Auto-migrates the products and inventory_items tables.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		l, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer l.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := migrateSchema(db); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		l.Info("Schema up to date", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}

func migrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(&catalog.Product{}, &inventory.Item{})
}
