package models

import "time"

// ApprovalWorkflow is a team's ordered chain of approval steps.
type ApprovalWorkflow struct {
	// ID is the unique identifier for the workflow.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// TeamID is the owning team. Combined with Name this forms a unique constraint.
	TeamID uint64 `gorm:"not null;uniqueIndex:idx_workflow_team_name" json:"teamId"`
	// Name is unique within the team.
	Name string `gorm:"size:100;not null;uniqueIndex:idx_workflow_team_name" json:"name"`
	// Description provides a human-readable description of the workflow.
	Description string `gorm:"size:255" json:"description"`
	// Steps are the workflow's steps. Load them ordered by step_order.
	Steps []ApprovalStep `gorm:"foreignKey:WorkflowID;constraint:OnDelete:CASCADE" json:"steps"`
	// CreatedAt is the timestamp when the workflow was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the workflow was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the ApprovalWorkflow model.
func (ApprovalWorkflow) TableName() string {
	return "approval_workflows"
}

// ApprovalStep is one step of a workflow. Exactly one of Role and AssignedUserID is set.
type ApprovalStep struct {
	// ID is the unique identifier for the step.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// WorkflowID is the owning workflow. Combined with Order this forms a unique constraint.
	WorkflowID uint64 `gorm:"not null;uniqueIndex:idx_step_workflow_order" json:"workflowId"`
	// Order is the 1-based position of the step. Gaps are allowed, steps run in ascending order.
	Order int `gorm:"column:step_order;not null;uniqueIndex:idx_step_workflow_order" json:"order"`
	// Role is the built-in role whose members may approve the step.
	Role *Role `gorm:"type:varchar(32)" json:"role,omitempty"`
	// AssignedUserID is the single user who must approve the step.
	AssignedUserID *uint64 `json:"assignedUserId,omitempty"`
	// RequireAllUsersInRole fans the step out to every active member holding Role.
	RequireAllUsersInRole bool `gorm:"not null;default:false" json:"requireAllUsersInRole"`
}

// TableName specifies the database table name for the ApprovalStep model.
func (ApprovalStep) TableName() string {
	return "approval_steps"
}
