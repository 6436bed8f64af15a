package models

import (
	"strings"
	"time"
)

// Permission represents a single capability in the permission catalog.
// Codes follow the resource.action format, for example "content.approve".
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Code is the unique permission identifier in resource.action format.
	Code string `gorm:"uniqueIndex;size:100;not null" json:"code"`
	// Resource is the resource part of the code (e.g., "content", "workflow").
	Resource string `gorm:"size:100;not null" json:"resource"`
	// Action is the action part of the code (e.g., "approve", "manage").
	Action string `gorm:"size:50;not null" json:"action"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}

// NewPermission splits code into resource and action.
// Codes with more than one dot keep everything after the first dot as the action.
func NewPermission(code, description string) Permission {
	resource, action, _ := strings.Cut(code, ".")

	return Permission{
		Code:        code,
		Resource:    resource,
		Action:      action,
		Description: description,
	}
}
