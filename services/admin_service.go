package services

import (
	"context"
	"errors"
	"time"

	"report-ledger-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantInput names one grant of a role.
type GrantInput struct {
	ModuleID       int                   `json:"module_id"`
	PermissionType models.PermissionType `json:"permission_type"`
}

// AdminService mutates grants and user roles. Every successful change drops
// the cached grant snapshot.
type AdminService struct {
	db       *gorm.DB
	registry *ModuleRegistry
	perms    *PermissionService
}

func NewAdminService(db *gorm.DB, registry *ModuleRegistry, perms *PermissionService) *AdminService {
	return &AdminService{db: db, registry: registry, perms: perms}
}

func (s *AdminService) requireRole(ctx context.Context, roleID int) error {
	var role models.Role
	err := s.db.WithContext(ctx).Where("role_id = ? AND delete_at IS NULL", roleID).Take(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("role %d does not exist", roleID)
	}
	if err != nil {
		return storeFailure("load role", err)
	}
	return nil
}

func (s *AdminService) validateGrant(ctx context.Context, grant GrantInput) error {
	if !grant.PermissionType.Valid() {
		return invalidInput("permission_type must be read or write, got %q", grant.PermissionType)
	}
	_, err := s.registry.Get(ctx, grant.ModuleID)
	return err
}

// ReplaceRoleGrants swaps the full grant set of a role in one transaction.
func (s *AdminService) ReplaceRoleGrants(ctx context.Context, roleID int, grants []GrantInput) ([]models.PermissionGrant, error) {
	if err := s.requireRole(ctx, roleID); err != nil {
		return nil, err
	}

	type grantKey struct {
		moduleID int
		ptype    models.PermissionType
	}
	seen := make(map[grantKey]struct{}, len(grants))
	rows := make([]models.PermissionGrant, 0, len(grants))
	now := time.Now()
	for _, grant := range grants {
		if err := s.validateGrant(ctx, grant); err != nil {
			return nil, err
		}
		key := grantKey{grant.ModuleID, grant.PermissionType}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, models.PermissionGrant{
			RoleID:         roleID,
			ModuleID:       grant.ModuleID,
			PermissionType: grant.PermissionType,
			CreatedAt:      now,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&models.PermissionGrant{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, storeFailure("replace role grants", err)
	}

	s.perms.Invalidate()
	return rows, nil
}

// Grant adds one grant to a role. Granting an existing grant is a no-op.
func (s *AdminService) Grant(ctx context.Context, roleID int, grant GrantInput) error {
	if err := s.requireRole(ctx, roleID); err != nil {
		return err
	}
	if err := s.validateGrant(ctx, grant); err != nil {
		return err
	}

	row := models.PermissionGrant{
		RoleID:         roleID,
		ModuleID:       grant.ModuleID,
		PermissionType: grant.PermissionType,
		CreatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role_id"}, {Name: "module_id"}, {Name: "permission_type"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return storeFailure("grant permission", err)
	}

	s.perms.Invalidate()
	return nil
}

// Revoke removes one grant from a role.
func (s *AdminService) Revoke(ctx context.Context, roleID int, grant GrantInput) error {
	if err := s.validateGrant(ctx, grant); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("role_id = ? AND module_id = ? AND permission_type = ?", roleID, grant.ModuleID, grant.PermissionType).
		Delete(&models.PermissionGrant{})
	if res.Error != nil {
		return storeFailure("revoke permission", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("role %d has no %s grant on module %d", roleID, grant.PermissionType, grant.ModuleID)
	}

	s.perms.Invalidate()
	return nil
}

// SetUserRole moves a user to another role.
func (s *AdminService) SetUserRole(ctx context.Context, userID, roleID int) error {
	if err := s.requireRole(ctx, roleID); err != nil {
		return err
	}

	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ? AND delete_at IS NULL", userID).
		Updates(map[string]interface{}{"role_id": roleID, "update_at": now})
	if res.Error != nil {
		return storeFailure("set user role", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("user %d does not exist", userID)
	}

	s.perms.Invalidate()
	return nil
}
