package models

import (
	"time"
)

type User struct {
	UserID   int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username string     `gorm:"column:username;size:64;uniqueIndex:uq_users_username" json:"username"`
	Email    string     `gorm:"column:email;size:191;uniqueIndex:uq_users_email" json:"email"`
	Password string     `gorm:"column:password" json:"-"`
	RoleID   int        `gorm:"column:role_id;index" json:"role_id"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role *Role `gorm:"foreignKey:RoleID;references:RoleID" json:"role,omitempty"`
}

// Role is a predefined bundle of module grants. Every user holds exactly one.
type Role struct {
	RoleID      int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Name        string     `gorm:"column:name;size:64;uniqueIndex:uq_roles_name" json:"name"`
	Description string     `gorm:"column:description;size:255" json:"description"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}
