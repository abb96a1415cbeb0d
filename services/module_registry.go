package services

import (
	"context"
	"sync"

	"report-ledger-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ModuleRegistry is the in-memory view of the module catalog. The catalog
// does not change during normal operation, so it is loaded once on first use.
// Rows whose category is outside the fixed set are left out.
type ModuleRegistry struct {
	db     *gorm.DB
	logger *zap.Logger

	mu      sync.RWMutex
	loaded  bool
	modules []models.Module
	byID    map[int]models.Module
	byKey   map[string]models.Module
}

func NewModuleRegistry(db *gorm.DB) *ModuleRegistry {
	return &ModuleRegistry{db: db, logger: zap.NewNop()}
}

// WithLogger sets the logger used to report skipped catalog rows.
func (r *ModuleRegistry) WithLogger(logger *zap.Logger) *ModuleRegistry {
	if logger != nil {
		r.logger = logger
	}
	return r
}

func (r *ModuleRegistry) ensureLoaded(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	return r.load(ctx)
}

func (r *ModuleRegistry) load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return nil
	}

	var all []models.Module
	if err := r.db.WithContext(ctx).Find(&all).Error; err != nil {
		return storeFailure("load modules", err)
	}
	rows := make([]models.Module, 0, len(all))
	for _, module := range all {
		if !module.Category.Valid() {
			r.logger.Warn("module skipped: unknown category",
				zap.Int("module_id", module.ModuleID),
				zap.String("module_key", module.Key),
				zap.String("category", string(module.Category)),
			)
			continue
		}
		rows = append(rows, module)
	}
	models.SortModules(rows)

	byID := make(map[int]models.Module, len(rows))
	byKey := make(map[string]models.Module, len(rows))
	for _, module := range rows {
		byID[module.ModuleID] = module
		byKey[module.Key] = module
	}

	r.modules = rows
	r.byID = byID
	r.byKey = byKey
	r.loaded = true
	return nil
}

// All returns every module ordered by (category, name).
func (r *ModuleRegistry) All(ctx context.Context) ([]models.Module, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Module, len(r.modules))
	copy(out, r.modules)
	return out, nil
}

func (r *ModuleRegistry) Get(ctx context.Context, moduleID int) (models.Module, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return models.Module{}, err
	}
	r.mu.RLock()
	module, ok := r.byID[moduleID]
	r.mu.RUnlock()
	if !ok {
		return models.Module{}, notFound("module %d does not exist", moduleID)
	}
	return module, nil
}

// ByKey looks a module up by its short key, e.g. "M201".
func (r *ModuleRegistry) ByKey(ctx context.Context, key string) (models.Module, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return models.Module{}, err
	}
	r.mu.RLock()
	module, ok := r.byKey[key]
	r.mu.RUnlock()
	if !ok {
		return models.Module{}, notFound("module %q does not exist", key)
	}
	return module, nil
}

// Select returns the modules accepted by keep, in catalog order.
func (r *ModuleRegistry) Select(ctx context.Context, keep func(models.Module) bool) ([]models.Module, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Module, 0, len(all))
	for _, module := range all {
		if keep(module) {
			out = append(out, module)
		}
	}
	return out, nil
}
