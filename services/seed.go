package services

import (
	"context"
	"time"

	"report-ledger-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed inserts the default roles, modules and grants. Rows that already
// exist are left alone, so Seed can run on every start.
func Seed(ctx context.Context, db *gorm.DB) error {
	for _, module := range models.DefaultModules {
		if !module.Category.Valid() {
			return invalidInput("module %s has unknown category %q", module.Key, module.Category)
		}
	}

	now := time.Now()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roles := make([]models.Role, len(models.DefaultRoles))
		copy(roles, models.DefaultRoles)
		for i := range roles {
			roles[i].CreateAt = &now
			roles[i].UpdateAt = &now
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
			return storeFailure("seed roles", err)
		}

		modules := make([]models.Module, len(models.DefaultModules))
		copy(modules, models.DefaultModules)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&modules).Error; err != nil {
			return storeFailure("seed modules", err)
		}

		grants := models.DefaultGrants()
		for i := range grants {
			grants[i].CreatedAt = now
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&grants, 100).Error; err != nil {
			return storeFailure("seed grants", err)
		}
		return nil
	})
}
