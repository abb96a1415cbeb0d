package services

import (
	"context"
	"testing"
	"time"

	"report-ledger-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		submitted, writable int
		want                float64
	}{
		{0, 0, 0},
		{3, 0, 0},
		{4, 10, 40},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{5, 5, 100},
		{7, 5, 100},
		{-1, 5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, completionRate(tt.submitted, tt.writable), "%d/%d", tt.submitted, tt.writable)
	}
}

// setupTenWritable creates a role writing the first ten catalog modules and a
// user holding it.
func setupTenWritable(t *testing.T, f *ledgerFixture) models.User {
	t.Helper()
	createRole(t, f.db, 9, "controller")
	grants := make([]GrantInput, 0, 10)
	for _, module := range models.DefaultModules[:10] {
		grants = append(grants, GrantInput{ModuleID: module.ModuleID, PermissionType: models.PermissionWrite})
	}
	_, err := f.admin.ReplaceRoleGrants(context.Background(), 9, grants)
	require.NoError(t, err)
	return createUser(t, f.db, 9)
}

func TestPendingOverviewTenWritableFourSubmitted(t *testing.T) {
	f := newLedgerFixture(t, setupTestDB(t))
	ctx := context.Background()
	user := setupTenWritable(t, f)

	for _, moduleID := range []int{101, 102, 201, 301} {
		_, err := f.ledger.Submit(ctx, submitInput(moduleID, user.UserID, `{"ok": true}`))
		require.NoError(t, err)
	}

	pending, err := f.dashboard.PendingOverview(ctx, user.UserID, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, 10, pending.WritableCount)
	assert.Equal(t, 4, pending.SubmittedCount)
	assert.Equal(t, 6, pending.PendingCount)
	assert.Equal(t, []string{"Budget Execution", "Cash Flow Statement", "Bidding Status", "Contract Backlog", "Engineering Cost Summary"}, pending.PendingModules)

	completion, err := f.dashboard.CompletionRate(ctx, user.UserID, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, 40.0, completion.CompletionRate)
	assert.Equal(t, 10, completion.WritableCount)
	assert.Equal(t, 4, completion.SubmittedCount)

	byCategory := map[models.Category]CategoryStat{}
	for _, stat := range completion.Categories {
		byCategory[stat.Category] = stat
	}
	require.Len(t, byCategory, len(models.Categories))
	assert.Equal(t, 50.0, byCategory[models.CategoryFinance].CompletionRate)
	assert.Equal(t, 33.3, byCategory[models.CategoryMarket].CompletionRate)
	assert.Equal(t, 50.0, byCategory[models.CategoryProject].CompletionRate)
	assert.Equal(t, 0.0, byCategory[models.CategoryEquipment].CompletionRate)
	assert.Equal(t, 1, byCategory[models.CategoryEquipment].WritableCount)
}

func TestCompletionRateEmptyCategoryIsZero(t *testing.T) {
	f := newLedgerFixture(t, setupTestDB(t))
	ctx := context.Background()
	manager := createUser(t, f.db, models.RoleIDProjectManager)
	viewer := createUser(t, f.db, models.RoleIDViewer)

	completion, err := f.dashboard.CompletionRate(ctx, manager.UserID, testPeriod)
	require.NoError(t, err)
	for _, stat := range completion.Categories {
		switch stat.Category {
		case models.CategoryFinance, models.CategoryMarket:
			assert.Zero(t, stat.WritableCount)
			assert.Equal(t, 0.0, stat.CompletionRate)
		default:
			assert.Positive(t, stat.WritableCount)
		}
	}

	completion, err = f.dashboard.CompletionRate(ctx, viewer.UserID, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, 0.0, completion.CompletionRate)

	pending, err := f.dashboard.PendingOverview(ctx, viewer.UserID, testPeriod)
	require.NoError(t, err)
	assert.Zero(t, pending.PendingCount)
	assert.Empty(t, pending.PendingModules)
}

func TestModuleWithUnknownCategoryIsSkipped(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.Module{ModuleID: 901, Key: "M901", Name: "Headcount", Category: "hr"}).Error)
	require.NoError(t, db.Create(&models.PermissionGrant{RoleID: models.RoleIDAdmin, ModuleID: 901, PermissionType: models.PermissionWrite}).Error)

	core, logs := observer.New(zap.WarnLevel)
	f := newLedgerFixture(t, db)
	f.registry.WithLogger(zap.New(core))
	ctx := context.Background()
	admin := createUser(t, db, models.RoleIDAdmin)

	completion, err := f.dashboard.CompletionRate(ctx, admin.UserID, testPeriod)
	require.NoError(t, err)
	pending, err := f.dashboard.PendingOverview(ctx, admin.UserID, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, len(models.DefaultModules), completion.WritableCount)
	assert.Equal(t, completion.WritableCount, pending.WritableCount)
	assert.Equal(t, completion.WritableCount, pending.PendingCount)

	modules, err := f.perms.ListPendingForWriter(ctx, admin.UserID, testPeriod)
	require.NoError(t, err)
	assert.Len(t, modules, completion.WritableCount)

	_, err = f.registry.Get(ctx, 901)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.perms.CanWrite(ctx, admin.UserID, 901)
	assert.ErrorIs(t, err, ErrNotFound)

	skipped := logs.FilterMessage("module skipped: unknown category").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "hr", skipped[0].ContextMap()["category"])
}

func TestDefaultCatalogCategoriesAreValid(t *testing.T) {
	for _, module := range models.DefaultModules {
		assert.True(t, module.Category.Valid(), module.Key)
	}
}

func TestTrendCountsReadableSubmissions(t *testing.T) {
	f := newLedgerFixture(t, setupTestDB(t))
	ctx := context.Background()
	f.dashboard.now = func() time.Time { return time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC) }
	admin := createUser(t, f.db, models.RoleIDAdmin)
	createRole(t, f.db, 9, "finance_reader")
	_, err := f.admin.ReplaceRoleGrants(ctx, 9, []GrantInput{
		{ModuleID: 101, PermissionType: models.PermissionRead},
		{ModuleID: 102, PermissionType: models.PermissionRead},
	})
	require.NoError(t, err)
	reader := createUser(t, f.db, 9)

	submissions := []struct {
		moduleID int
		period   string
	}{
		{101, "2024-03"},
		{102, "2024-03"},
		{201, "2024-03"},
		{101, "2024-01"},
		{301, "2023-12"},
		{101, "2023-06"},
	}
	for _, s := range submissions {
		in := submitInput(s.moduleID, admin.UserID, `{"v": 1}`)
		in.Period = s.period
		_, err := f.ledger.Submit(ctx, in)
		require.NoError(t, err)
	}

	trend, err := f.dashboard.Trend(ctx, admin.UserID, 4)
	require.NoError(t, err)
	assert.Equal(t, []TrendPoint{
		{Period: "2024-03", SubmissionCount: 3, CategoryCount: 2},
		{Period: "2024-02", SubmissionCount: 0, CategoryCount: 0},
		{Period: "2024-01", SubmissionCount: 1, CategoryCount: 1},
		{Period: "2023-12", SubmissionCount: 1, CategoryCount: 1},
	}, trend)

	trend, err = f.dashboard.Trend(ctx, reader.UserID, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, trend[0].SubmissionCount)
	assert.Equal(t, 1, trend[0].CategoryCount)
	assert.Equal(t, 0, trend[3].SubmissionCount)

	trend, err = f.dashboard.Trend(ctx, admin.UserID, 0)
	require.NoError(t, err)
	assert.Len(t, trend, defaultTrendMonths)

	trend, err = f.dashboard.Trend(ctx, admin.UserID, 100)
	require.NoError(t, err)
	assert.Len(t, trend, maxTrendMonths)
}

func TestOverviewUnknownUser(t *testing.T) {
	f := newLedgerFixture(t, setupTestDB(t))

	_, err := f.dashboard.Overview(context.Background(), 9999, "", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOverviewDefaultsToCurrentPeriod(t *testing.T) {
	f := newLedgerFixture(t, setupTestDB(t))
	f.dashboard.now = func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) }
	user := createUser(t, f.db, models.RoleIDFinanceOfficer)

	overview, err := f.dashboard.Overview(context.Background(), user.UserID, "", 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", overview.Period)
	assert.Equal(t, 7, overview.Pending.PendingCount)
	assert.Len(t, overview.Pending.PendingModules, defaultPendingPreview)
	assert.Len(t, overview.Trend, 3)
}
