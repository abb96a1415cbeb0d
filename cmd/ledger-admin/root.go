package main

import (
	"fmt"
	"log"

	"report-ledger-api/config"
	"report-ledger-api/services"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	envFile string

	cfg *config.Config
	db  *gorm.DB
)

var rootCmd = &cobra.Command{
	Use:   "ledger-admin",
	Short: "Administration CLI for the report ledger",
	Long: `ledger-admin manages the report ledger database directly.

It reads the same environment (and optional .env file) as the API server and
covers schema migration, catalog seeding, grant management and user roles.
Grant changes made here take effect in a running server once its permission
cache expires (PERMISSION_CACHE_TTL).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("No %s file found, using environment variables", envFile)
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		handle, err := config.OpenDatabase(cfg.Database, cfg.Server.Environment)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		db = handle
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db == nil {
			return nil
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to the environment file")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(setRoleCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(migratePasswordsCmd)
}

type adminServices struct {
	registry *services.ModuleRegistry
	perms    *services.PermissionService
	admin    *services.AdminService
}

// newAdmin wires the services the grant commands need. The permission cache
// is disabled since every command runs once.
func newAdmin() adminServices {
	registry := services.NewModuleRegistry(db)
	perms := services.NewPermissionService(db, registry, 0)
	return adminServices{
		registry: registry,
		perms:    perms,
		admin:    services.NewAdminService(db, registry, perms),
	}
}
