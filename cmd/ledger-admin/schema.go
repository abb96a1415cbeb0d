package main

import (
	"fmt"

	"report-ledger-api/models"
	"report-ledger-api/services"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := models.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		fmt.Println("Schema migration completed")
		return nil
	},
}

var (
	adminUsername string
	adminEmail    string
	adminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert default roles, modules and grants",
	Long: `Insert the default roles, report modules and role grants. Existing rows are
left untouched, so seed is safe to run repeatedly. With --admin-email and
--admin-password an administrator account is created as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := services.Seed(ctx, db); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		fmt.Printf("Seeded %d roles, %d modules\n", len(models.DefaultRoles), len(models.DefaultModules))

		if adminEmail == "" {
			return nil
		}
		user, err := services.NewAuthService(db).CreateUser(ctx, services.CreateUserInput{
			Username: adminUsername,
			Email:    adminEmail,
			Password: adminPassword,
			RoleID:   models.RoleIDAdmin,
		})
		if err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		fmt.Printf("Created admin user %s (id %d)\n", user.Email, user.UserID)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&adminUsername, "admin-username", "admin", "Username of the administrator to create")
	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "", "E-mail of the administrator to create")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "Password of the administrator to create")
}
