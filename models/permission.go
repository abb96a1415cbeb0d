package models

import "time"

type PermissionType string

const (
	PermissionRead  PermissionType = "read"
	PermissionWrite PermissionType = "write"
)

func (p PermissionType) Valid() bool {
	return p == PermissionRead || p == PermissionWrite
}

// PermissionGrant is a (role, module, permission_type) row. A role holds at
// most one grant per module per type.
type PermissionGrant struct {
	ID             int            `gorm:"primaryKey;column:id" json:"id"`
	RoleID         int            `gorm:"column:role_id;not null;uniqueIndex:uq_role_module_permission,priority:1" json:"role_id"`
	ModuleID       int            `gorm:"column:module_id;not null;uniqueIndex:uq_role_module_permission,priority:2" json:"module_id"`
	PermissionType PermissionType `gorm:"column:permission_type;size:8;not null;uniqueIndex:uq_role_module_permission,priority:3" json:"permission_type"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (PermissionGrant) TableName() string {
	return "role_module_permissions"
}

// ModuleAccess is the combined grant state a role holds on one module.
type ModuleAccess struct {
	Read  bool
	Write bool
}

// CanRead reports read visibility. A write grant implies it.
func (a ModuleAccess) CanRead() bool {
	return a.Read || a.Write
}

// Type returns the strongest permission held, or "" for none.
func (a ModuleAccess) Type() PermissionType {
	switch {
	case a.Write:
		return PermissionWrite
	case a.Read:
		return PermissionRead
	default:
		return ""
	}
}
