package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"report-ledger-api/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	require.NoError(t, Seed(context.Background(), db))
	return db
}

// newMockDB returns a gorm handle over sqlmock speaking the mysql dialect.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

type ledgerFixture struct {
	db        *gorm.DB
	registry  *ModuleRegistry
	perms     *PermissionService
	ledger    *LedgerService
	dashboard *DashboardService
	admin     *AdminService
}

func newLedgerFixture(t *testing.T, db *gorm.DB) *ledgerFixture {
	t.Helper()
	registry := NewModuleRegistry(db)
	perms := NewPermissionService(db, registry, time.Minute)
	ledger := NewLedgerService(db, registry, perms)
	return &ledgerFixture{
		db:        db,
		registry:  registry,
		perms:     perms,
		ledger:    ledger,
		dashboard: NewDashboardService(perms, ledger, registry, 0),
		admin:     NewAdminService(db, registry, perms),
	}
}

func createUser(t *testing.T, db *gorm.DB, roleID int) models.User {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	now := time.Now()
	user := models.User{
		Username: fmt.Sprintf("user%d", count+1),
		Email:    fmt.Sprintf("user%d@example.com", count+1),
		Password: "x",
		RoleID:   roleID,
		CreateAt: &now,
		UpdateAt: &now,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createRole(t *testing.T, db *gorm.DB, roleID int, name string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Role{RoleID: roleID, Name: name}).Error)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}
