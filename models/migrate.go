package models

import "gorm.io/gorm"

// Migrate creates or updates every table the ledger owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Role{},
		&User{},
		&Module{},
		&PermissionGrant{},
		&Submission{},
		&SubmissionHistory{},
		&Attachment{},
	)
}
