package services

import (
	"context"
	"math"
	"time"

	"report-ledger-api/models"
	"report-ledger-api/utils"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	defaultTrendMonths    = 6
	maxTrendMonths        = 24
	defaultPendingPreview = 5
)

// CategoryStat is the completion state of one category for one period.
type CategoryStat struct {
	Category       models.Category `json:"category"`
	Label          string          `json:"label"`
	WritableCount  int             `json:"writable_count"`
	SubmittedCount int             `json:"submitted_count"`
	CompletionRate float64         `json:"completion_rate"`
}

type CompletionSummary struct {
	Period         string         `json:"period"`
	WritableCount  int            `json:"writable_count"`
	SubmittedCount int            `json:"submitted_count"`
	CompletionRate float64        `json:"completion_rate"`
	Categories     []CategoryStat `json:"categories"`
}

type TrendPoint struct {
	Period          string `json:"period"`
	SubmissionCount int    `json:"submission_count"`
	CategoryCount   int    `json:"category_count"`
}

type PendingOverview struct {
	Period         string   `json:"period"`
	WritableCount  int      `json:"writable_count"`
	SubmittedCount int      `json:"submitted_count"`
	PendingCount   int      `json:"pending_count"`
	PendingModules []string `json:"pending_modules"`
}

// DashboardOverview bundles everything the user dashboard shows.
type DashboardOverview struct {
	UserID     int                `json:"user_id"`
	Period     string             `json:"period"`
	Completion *CompletionSummary `json:"completion"`
	Trend      []TrendPoint       `json:"trend"`
	Pending    *PendingOverview   `json:"pending"`
}

// DashboardService derives completion and pending statistics from resolved
// permissions and current ledger state. It holds no state of its own.
type DashboardService struct {
	perms          PermissionResolver
	ledger         *LedgerService
	registry       *ModuleRegistry
	pendingPreview int
	now            func() time.Time
}

func NewDashboardService(perms PermissionResolver, ledger *LedgerService, registry *ModuleRegistry, pendingPreview int) *DashboardService {
	if pendingPreview <= 0 {
		pendingPreview = defaultPendingPreview
	}
	return &DashboardService{
		perms:          perms,
		ledger:         ledger,
		registry:       registry,
		pendingPreview: pendingPreview,
		now:            time.Now,
	}
}

// completionRate is submitted/writable*100 rounded to one decimal, 0 when
// nothing is writable.
func completionRate(submitted, writable int) float64 {
	if writable <= 0 {
		return 0
	}
	rate := math.Round(float64(submitted)/float64(writable)*1000) / 10
	return math.Max(0, math.Min(100, rate))
}

// writableState loads the writable modules of a user and which of them have
// a current submission for period.
func (s *DashboardService) writableState(ctx context.Context, userID int, period string) ([]models.Module, mapset.Set[int], error) {
	if !utils.ValidatePeriod(period) {
		return nil, nil, invalidPeriod(period)
	}
	access, err := s.perms.ResolveAccess(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	writable, err := s.registry.Select(ctx, func(module models.Module) bool {
		return access.Writable.Contains(module.ModuleID)
	})
	if err != nil {
		return nil, nil, err
	}
	submitted, err := s.ledger.SubmittedModuleIDs(ctx, period)
	if err != nil {
		return nil, nil, err
	}
	return writable, submitted, nil
}

// CompletionRate computes per-category and overall completion for a user.
// Every category appears in the result, with rate 0 when it has no writable module.
func (s *DashboardService) CompletionRate(ctx context.Context, userID int, period string) (*CompletionSummary, error) {
	writable, submitted, err := s.writableState(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	stats := make(map[models.Category]*CategoryStat, len(models.Categories))
	for _, category := range models.Categories {
		stats[category] = &CategoryStat{Category: category, Label: category.Label()}
	}

	summary := &CompletionSummary{Period: period}
	for _, module := range writable {
		stat, ok := stats[module.Category]
		if !ok {
			continue
		}
		stat.WritableCount++
		summary.WritableCount++
		if submitted.Contains(module.ModuleID) {
			stat.SubmittedCount++
			summary.SubmittedCount++
		}
	}

	summary.Categories = make([]CategoryStat, 0, len(models.Categories))
	for _, category := range models.Categories {
		stat := stats[category]
		stat.CompletionRate = completionRate(stat.SubmittedCount, stat.WritableCount)
		summary.Categories = append(summary.Categories, *stat)
	}
	summary.CompletionRate = completionRate(summary.SubmittedCount, summary.WritableCount)
	return summary, nil
}

// Trend counts submissions on readable modules for the last monthsBack
// periods, current period included, most recent first.
func (s *DashboardService) Trend(ctx context.Context, userID int, monthsBack int) ([]TrendPoint, error) {
	if monthsBack <= 0 {
		monthsBack = defaultTrendMonths
	}
	if monthsBack > maxTrendMonths {
		monthsBack = maxTrendMonths
	}

	access, err := s.perms.ResolveAccess(ctx, userID)
	if err != nil {
		return nil, err
	}

	periods := utils.RecentPeriods(s.now(), monthsBack)
	byPeriod, err := s.ledger.SubmittedByPeriod(ctx, periods)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(periods))
	for _, period := range periods {
		point := TrendPoint{Period: period}
		categories := mapset.NewThreadUnsafeSet[models.Category]()
		for _, moduleID := range byPeriod[period] {
			if !access.Readable.Contains(moduleID) {
				continue
			}
			module, err := s.registry.Get(ctx, moduleID)
			if err != nil {
				continue
			}
			point.SubmissionCount++
			categories.Add(module.Category)
		}
		point.CategoryCount = categories.Cardinality()
		points = append(points, point)
	}
	return points, nil
}

// PendingOverview reports how many writable modules still lack a submission
// for period, with the first few pending module names.
func (s *DashboardService) PendingOverview(ctx context.Context, userID int, period string) (*PendingOverview, error) {
	writable, submitted, err := s.writableState(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	overview := &PendingOverview{
		Period:         period,
		WritableCount:  len(writable),
		PendingModules: make([]string, 0, s.pendingPreview),
	}
	for _, module := range writable {
		if submitted.Contains(module.ModuleID) {
			overview.SubmittedCount++
			continue
		}
		if len(overview.PendingModules) < s.pendingPreview {
			overview.PendingModules = append(overview.PendingModules, module.Name)
		}
	}
	overview.PendingCount = max(0, overview.WritableCount-overview.SubmittedCount)
	return overview, nil
}

// Overview assembles the full dashboard for a user.
func (s *DashboardService) Overview(ctx context.Context, userID int, period string, monthsBack int) (*DashboardOverview, error) {
	if period == "" {
		period = utils.CurrentPeriod(s.now())
	}

	completion, err := s.CompletionRate(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	trend, err := s.Trend(ctx, userID, monthsBack)
	if err != nil {
		return nil, err
	}
	pending, err := s.PendingOverview(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	return &DashboardOverview{
		UserID:     userID,
		Period:     period,
		Completion: completion,
		Trend:      trend,
		Pending:    pending,
	}, nil
}
