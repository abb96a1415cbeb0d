package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"report-ledger-api/models"
	"report-ledger-api/utils"

	mapset "github.com/deckarep/golang-set/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultSubmitAttempts = 3

// SubmitInput is one submit-or-update request.
type SubmitInput struct {
	ModuleID    int
	Period      string
	UserID      int
	Data        json.RawMessage
	Remarks     *string
	Suggestions *string
}

// SubmitResult reports what a submit did to the current row.
type SubmitResult struct {
	SubmissionID    int                     `json:"submission_id"`
	Action          models.SubmissionAction `json:"action"`
	SubmissionCount int                     `json:"submission_count"`
}

// ModuleStatus is the per-module row of a period status report.
type ModuleStatus struct {
	Module          models.Module         `json:"module"`
	PermissionType  models.PermissionType `json:"permission_type,omitempty"`
	Submitted       bool                  `json:"submitted"`
	SubmissionID    *int                  `json:"submission_id,omitempty"`
	SubmissionCount int                   `json:"submission_count"`
	SubmittedBy     *int                  `json:"submitted_by,omitempty"`
	UpdatedAt       *time.Time            `json:"updated_at,omitempty"`
}

// SubmitListener is notified after a submit unit has committed.
type SubmitListener interface {
	SubmissionCommitted(ctx context.Context, module models.Module, submission models.Submission, action models.SubmissionAction)
}

// LedgerService owns the current-submission rows and their append-only
// history. Every mutation checks the caller's write grant first.
type LedgerService struct {
	db          *gorm.DB
	registry    *ModuleRegistry
	perms       PermissionResolver
	listener    SubmitListener
	now         func() time.Time
	maxAttempts int
}

func NewLedgerService(db *gorm.DB, registry *ModuleRegistry, perms PermissionResolver) *LedgerService {
	return &LedgerService{
		db:          db,
		registry:    registry,
		perms:       perms,
		now:         time.Now,
		maxAttempts: defaultSubmitAttempts,
	}
}

// WithListener registers a listener for committed submits.
func (s *LedgerService) WithListener(listener SubmitListener) *LedgerService {
	s.listener = listener
	return s
}

func (s *LedgerService) requireWrite(ctx context.Context, userID int, module models.Module) error {
	if userID <= 0 {
		return invalidInput("user_id is required")
	}
	allowed, err := s.perms.CanWrite(ctx, userID, module.ModuleID)
	if err != nil {
		return err
	}
	if !allowed {
		return permissionDenied("user %d has no write permission for module %s", userID, module.Key)
	}
	return nil
}

// Submit creates the current row for (module, period) or updates it in place,
// appending one history entry in the same transaction. A racing first submit
// that loses on the unique key is replayed and becomes an update.
func (s *LedgerService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if !utils.ValidatePeriod(in.Period) {
		return nil, invalidPeriod(in.Period)
	}
	if in.ModuleID <= 0 {
		return nil, invalidInput("module_id is required")
	}
	if in.UserID <= 0 {
		return nil, invalidInput("user_id is required")
	}
	doc, err := utils.ParseDocument(in.Data)
	if err != nil {
		return nil, invalidInput("%v", err)
	}
	remarks := utils.SanitizeOptional(in.Remarks)
	suggestions := utils.SanitizeOptional(in.Suggestions)

	module, err := s.registry.Get(ctx, in.ModuleID)
	if err != nil {
		return nil, err
	}
	if err := s.requireWrite(ctx, in.UserID, module); err != nil {
		return nil, err
	}

	var (
		result  *SubmitResult
		current *models.Submission
	)
	for attempt := 1; ; attempt++ {
		result, current, err = s.submitOnce(ctx, in, doc, remarks, suggestions)
		if err == nil {
			break
		}
		if attempt < s.maxAttempts && isRetryableWrite(err) {
			continue
		}
		return nil, storeFailure("submit", err)
	}

	if s.listener != nil {
		s.listener.SubmissionCommitted(ctx, module, *current, result.Action)
	}
	return result, nil
}

func (s *LedgerService) submitOnce(ctx context.Context, in SubmitInput, doc datatypes.JSON, remarks, suggestions *string) (*SubmitResult, *models.Submission, error) {
	var (
		result  SubmitResult
		current models.Submission
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		var existing models.Submission
		err := lockForUpdate(tx).
			Where("module_id = ? AND period = ?", in.ModuleID, in.Period).
			Take(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			current = models.Submission{
				ModuleID:        in.ModuleID,
				Period:          in.Period,
				Data:            doc,
				SubmittedBy:     in.UserID,
				SubmissionCount: 1,
				Remarks:         remarks,
				Suggestions:     suggestions,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.Create(&current).Error; err != nil {
				return err
			}
			result.Action = models.ActionCreate

		case err != nil:
			return err

		default:
			updates := map[string]interface{}{
				"submission_count": gorm.Expr("submission_count + 1"),
				"data":             doc,
				"submitted_by":     in.UserID,
				"updated_at":       now,
			}
			if remarks != nil {
				updates["remarks"] = *remarks
			}
			if suggestions != nil {
				updates["suggestions"] = *suggestions
			}
			if err := tx.Model(&models.Submission{}).
				Where("submission_id = ?", existing.SubmissionID).
				Updates(updates).Error; err != nil {
				return err
			}
			if err := tx.Where("submission_id = ?", existing.SubmissionID).Take(&current).Error; err != nil {
				return err
			}
			result.Action = models.ActionUpdate
		}

		history := models.SubmissionHistory{
			ModuleID:    in.ModuleID,
			Period:      in.Period,
			SubmittedBy: in.UserID,
			Data:        doc,
			ActionType:  result.Action,
			Remarks:     remarks,
			CreatedAt:   now,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, nil, err
	}

	result.SubmissionID = current.SubmissionID
	result.SubmissionCount = current.SubmissionCount
	return &result, &current, nil
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect has row locks.
// SQLite serializes writers at the database level instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Get returns the current submission for (module, period).
func (s *LedgerService) Get(ctx context.Context, moduleID int, period string) (*models.Submission, error) {
	if !utils.ValidatePeriod(period) {
		return nil, invalidPeriod(period)
	}

	var submission models.Submission
	err := s.db.WithContext(ctx).
		Where("module_id = ? AND period = ?", moduleID, period).
		Take(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("no submission for module %d in %s", moduleID, period)
	}
	if err != nil {
		return nil, storeFailure("get submission", err)
	}

	submission.Data = utils.SafeDocument(submission.Data)
	return &submission, nil
}

// Delete removes the current submission. History rows are kept.
func (s *LedgerService) Delete(ctx context.Context, moduleID int, period string, userID int) error {
	if !utils.ValidatePeriod(period) {
		return invalidPeriod(period)
	}
	if userID <= 0 {
		return invalidInput("user_id is required")
	}

	module, err := s.registry.Get(ctx, moduleID)
	if err != nil {
		return err
	}
	if err := s.requireWrite(ctx, userID, module); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("module_id = ? AND period = ?", moduleID, period).
		Delete(&models.Submission{})
	if res.Error != nil {
		return storeFailure("delete submission", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("no submission for module %d in %s", moduleID, period)
	}
	return nil
}

// History returns every history entry for (module, period), oldest first.
func (s *LedgerService) History(ctx context.Context, moduleID int, period string) ([]models.SubmissionHistory, error) {
	if !utils.ValidatePeriod(period) {
		return nil, invalidPeriod(period)
	}

	var entries []models.SubmissionHistory
	if err := s.db.WithContext(ctx).
		Where("module_id = ? AND period = ?", moduleID, period).
		Order("history_id ASC").
		Find(&entries).Error; err != nil {
		return nil, storeFailure("list submission history", err)
	}
	for i := range entries {
		entries[i].Data = utils.SafeDocument(entries[i].Data)
	}
	return entries, nil
}

// StatusForPeriod reports submission state for every module the user can
// see, or for every module when userID is nil.
func (s *LedgerService) StatusForPeriod(ctx context.Context, period string, userID *int) ([]ModuleStatus, error) {
	if !utils.ValidatePeriod(period) {
		return nil, invalidPeriod(period)
	}

	var access *Access
	if userID != nil {
		resolved, err := s.perms.ResolveAccess(ctx, *userID)
		if err != nil {
			return nil, err
		}
		access = resolved
	}

	modules, err := s.registry.Select(ctx, func(module models.Module) bool {
		return access == nil || access.Readable.Contains(module.ModuleID)
	})
	if err != nil {
		return nil, err
	}

	var rows []models.Submission
	if err := s.db.WithContext(ctx).
		Select("submission_id", "module_id", "period", "submitted_by", "submission_count", "updated_at").
		Where("period = ?", period).
		Find(&rows).Error; err != nil {
		return nil, storeFailure("list period submissions", err)
	}
	byModule := make(map[int]models.Submission, len(rows))
	for _, row := range rows {
		byModule[row.ModuleID] = row
	}

	statuses := make([]ModuleStatus, 0, len(modules))
	for _, module := range modules {
		status := ModuleStatus{Module: module}
		if access != nil {
			status.PermissionType = access.PermissionFor(module.ModuleID)
		}
		if row, ok := byModule[module.ModuleID]; ok {
			submissionID, submittedBy, updatedAt := row.SubmissionID, row.SubmittedBy, row.UpdatedAt
			status.Submitted = true
			status.SubmissionID = &submissionID
			status.SubmissionCount = row.SubmissionCount
			status.SubmittedBy = &submittedBy
			status.UpdatedAt = &updatedAt
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// SubmittedModuleIDs returns the ids of modules with a current submission for period.
func (s *LedgerService) SubmittedModuleIDs(ctx context.Context, period string) (mapset.Set[int], error) {
	if !utils.ValidatePeriod(period) {
		return nil, invalidPeriod(period)
	}
	return submittedModuleIDs(ctx, s.db, period)
}

// SubmittedByPeriod returns, for each requested period, the module ids with a
// current submission.
func (s *LedgerService) SubmittedByPeriod(ctx context.Context, periods []string) (map[string][]int, error) {
	out := make(map[string][]int, len(periods))
	if len(periods) == 0 {
		return out, nil
	}

	var rows []struct {
		ModuleID int
		Period   string
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("module_id", "period").
		Where("period IN ?", periods).
		Find(&rows).Error; err != nil {
		return nil, storeFailure("list submissions by period", err)
	}
	for _, row := range rows {
		out[row.Period] = append(out[row.Period], row.ModuleID)
	}
	return out, nil
}

func submittedModuleIDs(ctx context.Context, db *gorm.DB, period string) (mapset.Set[int], error) {
	var ids []int
	if err := db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("period = ?", period).
		Pluck("module_id", &ids).Error; err != nil {
		return nil, storeFailure("list submitted modules", err)
	}
	return mapset.NewSet(ids...), nil
}
