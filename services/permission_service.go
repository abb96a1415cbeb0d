package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"report-ledger-api/models"
	"report-ledger-api/utils"

	mapset "github.com/deckarep/golang-set/v2"
	"gorm.io/gorm"
)

// Authorizer is the capability check consulted before any ledger mutation.
type Authorizer interface {
	CanRead(ctx context.Context, userID, moduleID int) (bool, error)
	CanWrite(ctx context.Context, userID, moduleID int) (bool, error)
}

// PermissionResolver resolves the complete module access of a user.
type PermissionResolver interface {
	Authorizer
	ResolveAccess(ctx context.Context, userID int) (*Access, error)
}

// Access is the resolved module visibility of one user.
type Access struct {
	UserID   int
	RoleID   int
	Readable mapset.Set[int]
	Writable mapset.Set[int]
}

// PermissionFor returns the strongest permission the user holds on moduleID.
func (a *Access) PermissionFor(moduleID int) models.PermissionType {
	return models.ModuleAccess{
		Read:  a.Readable.Contains(moduleID),
		Write: a.Writable.Contains(moduleID),
	}.Type()
}

// GrantSnapshot is an immutable copy of the grant table, role → module → access.
type GrantSnapshot struct {
	byRole   map[int]map[int]models.ModuleAccess
	loadedAt time.Time
}

func NewGrantSnapshot(grants []models.PermissionGrant, loadedAt time.Time) *GrantSnapshot {
	byRole := make(map[int]map[int]models.ModuleAccess)
	for _, grant := range grants {
		modules, ok := byRole[grant.RoleID]
		if !ok {
			modules = make(map[int]models.ModuleAccess)
			byRole[grant.RoleID] = modules
		}
		access := modules[grant.ModuleID]
		switch grant.PermissionType {
		case models.PermissionRead:
			access.Read = true
		case models.PermissionWrite:
			access.Write = true
		}
		modules[grant.ModuleID] = access
	}
	return &GrantSnapshot{byRole: byRole, loadedAt: loadedAt}
}

// Access returns the grant state a role holds on a module.
func (s *GrantSnapshot) Access(roleID, moduleID int) models.ModuleAccess {
	return s.byRole[roleID][moduleID]
}

// Resolve computes the readable and writable module sets of a role. A write
// grant adds the module to both sets. Modules rejected by known are skipped.
func (s *GrantSnapshot) Resolve(roleID int, known func(moduleID int) bool) (readable, writable mapset.Set[int]) {
	readable = mapset.NewSet[int]()
	writable = mapset.NewSet[int]()
	for moduleID, access := range s.byRole[roleID] {
		if known != nil && !known(moduleID) {
			continue
		}
		if access.CanRead() {
			readable.Add(moduleID)
		}
		if access.Write {
			writable.Add(moduleID)
		}
	}
	return readable, writable
}

// PermissionService resolves access from the user's role and a cached grant
// snapshot. The snapshot expires after ttl and is dropped by Invalidate
// whenever grants or user roles change.
type PermissionService struct {
	db       *gorm.DB
	registry *ModuleRegistry
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	snapshot *GrantSnapshot
}

func NewPermissionService(db *gorm.DB, registry *ModuleRegistry, ttl time.Duration) *PermissionService {
	return &PermissionService{
		db:       db,
		registry: registry,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *PermissionService) fresh(snapshot *GrantSnapshot) bool {
	return snapshot != nil && s.ttl > 0 && s.now().Sub(snapshot.loadedAt) < s.ttl
}

// Snapshot returns the current grant snapshot, loading it when the cached
// copy is missing or expired.
func (s *PermissionService) Snapshot(ctx context.Context) (*GrantSnapshot, error) {
	s.mu.RLock()
	cached := s.snapshot
	s.mu.RUnlock()

	if s.fresh(cached) {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fresh(s.snapshot) {
		return s.snapshot, nil
	}

	var rows []models.PermissionGrant
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, storeFailure("load permission grants", err)
	}

	snapshot := NewGrantSnapshot(rows, s.now())
	s.snapshot = snapshot
	return snapshot, nil
}

// Invalidate drops the cached grant snapshot.
func (s *PermissionService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}

func (s *PermissionService) lookupUser(ctx context.Context, userID int) (*models.User, error) {
	if userID <= 0 {
		return nil, invalidInput("user_id is required")
	}
	var user models.User
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND delete_at IS NULL", userID).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user %d does not exist", userID)
	}
	if err != nil {
		return nil, storeFailure("load user", err)
	}
	return &user, nil
}

// CurrentRoleID returns the role the user holds in the store right now.
func (s *PermissionService) CurrentRoleID(ctx context.Context, userID int) (int, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.RoleID, nil
}

// ResolveAccess computes the readable and writable module sets of a user.
func (s *PermissionService) ResolveAccess(ctx context.Context, userID int) (*Access, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	modules, err := s.registry.All(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[int]struct{}, len(modules))
	for _, module := range modules {
		known[module.ModuleID] = struct{}{}
	}

	readable, writable := snapshot.Resolve(user.RoleID, func(moduleID int) bool {
		_, ok := known[moduleID]
		return ok
	})

	return &Access{
		UserID:   user.UserID,
		RoleID:   user.RoleID,
		Readable: readable,
		Writable: writable,
	}, nil
}

func (s *PermissionService) moduleAccess(ctx context.Context, userID, moduleID int) (models.ModuleAccess, error) {
	if _, err := s.registry.Get(ctx, moduleID); err != nil {
		return models.ModuleAccess{}, err
	}
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return models.ModuleAccess{}, err
	}
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return models.ModuleAccess{}, err
	}
	return snapshot.Access(user.RoleID, moduleID), nil
}

func (s *PermissionService) CanRead(ctx context.Context, userID, moduleID int) (bool, error) {
	access, err := s.moduleAccess(ctx, userID, moduleID)
	if err != nil {
		return false, err
	}
	return access.CanRead(), nil
}

func (s *PermissionService) CanWrite(ctx context.Context, userID, moduleID int) (bool, error) {
	access, err := s.moduleAccess(ctx, userID, moduleID)
	if err != nil {
		return false, err
	}
	return access.Write, nil
}

// ListPendingForWriter returns the writable modules of a user that have no
// current submission for period, ordered by (category, name).
func (s *PermissionService) ListPendingForWriter(ctx context.Context, userID int, period string) ([]models.Module, error) {
	if !utils.ValidatePeriod(period) {
		return nil, invalidPeriod(period)
	}

	access, err := s.ResolveAccess(ctx, userID)
	if err != nil {
		return nil, err
	}

	submitted, err := submittedModuleIDs(ctx, s.db, period)
	if err != nil {
		return nil, err
	}

	return s.registry.Select(ctx, func(module models.Module) bool {
		return access.Writable.Contains(module.ModuleID) && !submitted.Contains(module.ModuleID)
	})
}
