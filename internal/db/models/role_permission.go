package models

import "time"

// RolePermission maps a built-in role to one of its default permissions.
// These rows are global and apply to every team.
type RolePermission struct {
	// Role is the built-in role in this mapping.
	Role Role `gorm:"primaryKey;type:varchar(32)" json:"role"`
	// PermissionID is the ID of the permission in this mapping.
	PermissionID uint64 `gorm:"primaryKey;column:permission_id" json:"permissionId"`
	// Permission is the associated permission (loaded via foreign key).
	// When a permission is deleted, its role assignments are automatically removed (CASCADE).
	Permission Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"permission"`
}

// TableName specifies the database table name for the RolePermission model.
// This overrides GORM's default pluralized table naming.
func (RolePermission) TableName() string {
	return "role_permissions"
}

// AuditAction is the kind of change recorded for a role default.
type AuditAction string

const (
	// AuditActionAdd records a permission added to a role's defaults.
	AuditActionAdd AuditAction = "add"
	// AuditActionRemove records a permission removed from a role's defaults.
	AuditActionRemove AuditAction = "remove"
)

// RolePermissionAudit is one entry of the role defaults change log.
type RolePermissionAudit struct {
	ID             uint64      `gorm:"primaryKey" json:"id"`
	Role           Role        `gorm:"type:varchar(32);not null;index" json:"role"`
	PermissionCode string      `gorm:"size:100;not null" json:"permissionCode"`
	Action         AuditAction `gorm:"type:varchar(10);not null" json:"action"`
	// Actor names who made the change, a username or "system" for seeding.
	Actor     string    `gorm:"size:100;not null" json:"actor"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the database table name for the RolePermissionAudit model.
func (RolePermissionAudit) TableName() string {
	return "role_permission_audits"
}
