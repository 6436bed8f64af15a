package approval

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/models"
)

// AssignedRequest is an assignment together with the instance fields a reviewer needs.
type AssignedRequest struct {
	models.ApprovalAssignment
	PostID        uint64 `json:"postId"`
	WorkflowID    uint64 `json:"workflowId"`
	SubmittedByID uint64 `json:"submittedById"`
}

// GetAssignedRequests lists the team's assignments the actor may review: those assigned to
// them and the unclaimed ones for their built-in role. An empty status lists every status.
func (e *Engine) GetAssignedRequests(
	ctx context.Context,
	actorID, teamID uint64,
	status models.AssignmentStatus,
) ([]AssignedRequest, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.ErrValidation.With("unknown assignment status %q", status)
	}

	member, err := e.auth.ActiveMembership(ctx, actorID, teamID)
	if err != nil {
		return nil, err
	}

	q := e.db.WithContext(ctx).Table("approval_assignments").
		Select("approval_assignments.*, approval_instances.post_id, " +
			"approval_instances.workflow_id, approval_instances.submitted_by_id").
		Joins("JOIN approval_instances ON approval_instances.id = approval_assignments.instance_id").
		Where("approval_assignments.team_id = ?", teamID)

	if member.Role != nil {
		q = q.Where("(approval_assignments.assigned_user_id = ? OR "+
			"(approval_assignments.assigned_user_id IS NULL AND approval_assignments.role = ?))",
			actorID, *member.Role)
	} else {
		q = q.Where("approval_assignments.assigned_user_id = ?", actorID)
	}

	if status != "" {
		q = q.Where("approval_assignments.status = ?", status)
	}

	var rows []AssignedRequest
	if err = q.Order("approval_assignments.created_at, approval_assignments.id").Scan(&rows).Error; err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to list assigned requests"))
	}

	return rows, nil
}

// GetMyRequests lists the instances the actor submitted in the team, newest first.
func (e *Engine) GetMyRequests(
	ctx context.Context,
	actorID, teamID uint64,
	status models.InstanceStatus,
) ([]models.ApprovalInstance, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.ErrValidation.With("unknown instance status %q", status)
	}

	if _, err := e.auth.ActiveMembership(ctx, actorID, teamID); err != nil {
		return nil, err
	}

	q := e.db.WithContext(ctx).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("step_order, id") }).
		Where("team_id = ? AND submitted_by_id = ?", teamID, actorID)

	if status != "" {
		q = q.Where("status = ?", status)
	}

	var instances []models.ApprovalInstance
	if err := q.Order("created_at DESC, id DESC").Find(&instances).Error; err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to list requests"))
	}

	return instances, nil
}

// GetInstance returns an instance with its assignments. Members of other teams get ErrInstanceNotFound.
func (e *Engine) GetInstance(ctx context.Context, actorID, instanceID uint64) (*models.ApprovalInstance, error) {
	var inst models.ApprovalInstance

	err := e.db.WithContext(ctx).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("step_order, id") }).
		First(&inst, instanceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound.With("id %d", instanceID)
		}

		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load instance"))
	}

	if _, err = e.auth.ActiveMembership(ctx, actorID, inst.TeamID); err != nil {
		if errors.Is(err, auth.ErrNotAMember) {
			return nil, ErrInstanceNotFound.With("id %d", instanceID)
		}

		return nil, err
	}

	return &inst, nil
}
