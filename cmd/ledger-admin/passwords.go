package main

import (
	"fmt"
	"log"

	"report-ledger-api/models"
	"report-ledger-api/utils"

	"github.com/spf13/cobra"
)

var migratePasswordsCmd = &cobra.Command{
	Use:   "migrate-passwords",
	Short: "Hash any plaintext passwords left in the users table",
	RunE: func(cmd *cobra.Command, args []string) error {
		var users []models.User
		if err := db.WithContext(cmd.Context()).Find(&users).Error; err != nil {
			return fmt.Errorf("failed to fetch users: %w", err)
		}

		migrated := 0
		for _, user := range users {
			if utils.IsHashedPassword(user.Password) {
				continue
			}

			hashedPassword, err := utils.HashPassword(user.Password)
			if err != nil {
				log.Printf("Failed to hash password for user %s: %v", user.Email, err)
				continue
			}

			if err := db.WithContext(cmd.Context()).Model(&user).Update("password", hashedPassword).Error; err != nil {
				log.Printf("Failed to update password for user %s: %v", user.Email, err)
				continue
			}
			migrated++
		}

		fmt.Printf("Password migration completed: %d of %d users updated\n", migrated, len(users))
		return nil
	},
}
