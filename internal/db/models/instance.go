package models

import "time"

// InstanceStatus is the state of an approval instance.
type InstanceStatus string

// Instance states.
const (
	InstancePending    InstanceStatus = "PENDING"
	InstanceInProgress InstanceStatus = "IN_PROGRESS"
	InstanceApproved   InstanceStatus = "APPROVED"
	InstanceRejected   InstanceStatus = "REJECTED"
)

// Terminal reports whether no further transition can leave s.
func (s InstanceStatus) Terminal() bool {
	return s == InstanceApproved || s == InstanceRejected
}

// Valid reports whether s is one of the instance states.
func (s InstanceStatus) Valid() bool {
	switch s {
	case InstancePending, InstanceInProgress, InstanceApproved, InstanceRejected:
		return true
	}

	return false
}

// AssignmentStatus is the state of a single approval assignment.
type AssignmentStatus string

// Assignment states.
const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentApproved  AssignmentStatus = "APPROVED"
	AssignmentRejected  AssignmentStatus = "REJECTED"
	AssignmentCancelled AssignmentStatus = "CANCELLED"
)

// Valid reports whether s is one of the assignment states.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentPending, AssignmentApproved, AssignmentRejected, AssignmentCancelled:
		return true
	}

	return false
}

// ApprovalInstance is one run of a workflow for a post.
type ApprovalInstance struct {
	// ID is the unique identifier for the instance.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// PostID is the post under review.
	PostID uint64 `gorm:"not null;index" json:"postId"`
	// WorkflowID is the workflow being run.
	WorkflowID uint64 `gorm:"not null;index" json:"workflowId"`
	// TeamID is the post's team, copied for team scoped queries.
	TeamID uint64 `gorm:"not null;index" json:"teamId"`
	// SubmittedByID is the user who submitted the post.
	SubmittedByID uint64 `gorm:"not null;index" json:"submittedById"`
	// Status is the instance state.
	Status InstanceStatus `gorm:"type:varchar(20);not null" json:"status"`
	// CurrentStepOrder is the order of the step under review, nil once terminal.
	CurrentStepOrder *int `json:"currentStepOrder,omitempty"`
	// ActivePostID equals PostID while the instance is not terminal and is nil afterwards.
	// Its unique index allows at most one active instance per post.
	ActivePostID *uint64 `gorm:"uniqueIndex" json:"activePostId,omitempty"`
	// CompletedAt is set when the instance reaches a terminal state.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	// Assignments are the instance's assignments across all materialized steps.
	Assignments []ApprovalAssignment `gorm:"foreignKey:InstanceID;constraint:OnDelete:CASCADE" json:"assignments"`
	// CreatedAt is the timestamp when the instance was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the instance was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the ApprovalInstance model.
func (ApprovalInstance) TableName() string {
	return "approval_instances"
}

// ApprovalAssignment is a request for one reviewer to decide on one step of an instance.
type ApprovalAssignment struct {
	// ID is the unique identifier for the assignment.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// InstanceID is the owning instance.
	InstanceID uint64 `gorm:"not null;index" json:"instanceId"`
	// TeamID is the instance's team, copied for team scoped queries.
	TeamID uint64 `gorm:"not null;index" json:"teamId"`
	// StepID is the step this assignment was materialized from.
	StepID uint64 `gorm:"not null" json:"stepId"`
	// StepOrder is the step's order at materialization time.
	StepOrder int `gorm:"not null" json:"stepOrder"`
	// Role is the step's role when the assignment is claimable by role.
	Role *Role `gorm:"type:varchar(32);index" json:"role,omitempty"`
	// AssignedUserID is the reviewer. Nil means any active member holding Role may claim it.
	AssignedUserID *uint64 `gorm:"index" json:"assignedUserId,omitempty"`
	// Status is the assignment state.
	Status AssignmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	// Feedback is the reviewer's comment.
	Feedback string `gorm:"type:text" json:"feedback"`
	// CompletedAt is set when the assignment leaves PENDING.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	// CreatedAt is the timestamp when the assignment was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the assignment was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the ApprovalAssignment model.
func (ApprovalAssignment) TableName() string {
	return "approval_assignments"
}
