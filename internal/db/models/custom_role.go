package models

import "time"

// CustomRole is a team defined role carrying an explicit permission list.
// Its permissions replace the built-in defaults for memberships that use it.
type CustomRole struct {
	// ID is the unique identifier for the custom role.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// TeamID is the team owning the role. Combined with Name this forms a unique constraint.
	TeamID uint64 `gorm:"not null;uniqueIndex:idx_custom_role_team_name" json:"teamId"`
	// Name is the machine name of the role, unique within the team.
	Name string `gorm:"size:100;not null;uniqueIndex:idx_custom_role_team_name" json:"name"`
	// DisplayName is the name shown to users.
	DisplayName string `gorm:"size:100" json:"displayName"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// Permissions are the role's permission rows.
	Permissions []CustomRolePermission `gorm:"foreignKey:CustomRoleID;constraint:OnDelete:CASCADE" json:"permissions"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the CustomRole model.
func (CustomRole) TableName() string {
	return "custom_roles"
}

// CustomRolePermission maps a custom role to one of its permissions.
type CustomRolePermission struct {
	CustomRoleID uint64     `gorm:"primaryKey" json:"customRoleId"`
	PermissionID uint64     `gorm:"primaryKey" json:"permissionId"`
	Permission   Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"permission"`
}

// TableName specifies the database table name for the CustomRolePermission model.
func (CustomRolePermission) TableName() string {
	return "custom_role_permissions"
}
