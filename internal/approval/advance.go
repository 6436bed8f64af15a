package approval

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/db/models"
)

// advance moves inst to the step after its current one, or approves it when none is left.
func (e *Engine) advance(tx *gorm.DB, inst *models.ApprovalInstance) (ReviewResult, error) {
	current := 0
	if inst.CurrentStepOrder != nil {
		current = *inst.CurrentStepOrder
	}

	step, err := nextStep(tx, inst.WorkflowID, current)
	if err != nil {
		return "", err
	}

	if step == nil {
		if err = instanceTransitions.check(inst.Status, models.InstanceApproved); err != nil {
			return "", err
		}

		now := e.now()
		inst.Status = models.InstanceApproved
		inst.CurrentStepOrder = nil
		inst.ActivePostID = nil
		inst.CompletedAt = &now

		if err = saveInstance(tx, inst); err != nil {
			return "", err
		}

		if err = setPostStatus(tx, inst.PostID, models.PostApproved); err != nil {
			return "", err
		}

		if err = enqueueCompleted(tx, inst, 0, ""); err != nil {
			return "", apperr.Internal(err)
		}

		return ResultApproved, nil
	}

	if err = instanceTransitions.check(inst.Status, models.InstanceInProgress); err != nil {
		return "", err
	}

	if step.Order <= current {
		return "", ErrInvalidTransition.With("step %d after step %d", step.Order, current)
	}

	inst.Status = models.InstanceInProgress
	inst.CurrentStepOrder = &step.Order

	if err = saveInstance(tx, inst); err != nil {
		return "", err
	}

	if err = e.materialize(tx, inst, step); err != nil {
		return "", err
	}

	return ResultMovedToNextStep, nil
}

func nextStep(tx *gorm.DB, workflowID uint64, after int) (*models.ApprovalStep, error) {
	var step models.ApprovalStep

	err := tx.Where("workflow_id = ? AND step_order > ?", workflowID, after).
		Order("step_order").
		First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil //nolint:nilnil
		}

		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load next step"))
	}

	return &step, nil
}

// materialize creates the assignments for step.
//
// A step with an assigned user yields one assignment for that user. A fan-out step
// yields one per active member holding the role, otherwise a single assignment is
// left for any member holding the role to claim.
func (e *Engine) materialize(tx *gorm.DB, inst *models.ApprovalInstance, step *models.ApprovalStep) error {
	base := models.ApprovalAssignment{
		InstanceID: inst.ID,
		TeamID:     inst.TeamID,
		StepID:     step.ID,
		StepOrder:  step.Order,
		Role:       step.Role,
		Status:     models.AssignmentPending,
	}

	var rows []models.ApprovalAssignment

	switch {
	case step.AssignedUserID != nil:
		var count int64

		err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND team_id = ? AND status = ?", *step.AssignedUserID, inst.TeamID, models.MembershipActive).
			Count(&count).Error
		if err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to check assignee"))
		}

		if count == 0 {
			return ErrNoEligibleReviewers.With("step %d: user %d is not an active member", step.Order, *step.AssignedUserID)
		}

		a := base
		a.AssignedUserID = step.AssignedUserID
		rows = append(rows, a)

	case step.Role != nil && step.RequireAllUsersInRole:
		var userIDs []uint64

		err := tx.Model(&models.Membership{}).
			Where("team_id = ? AND role = ? AND status = ?", inst.TeamID, *step.Role, models.MembershipActive).
			Order("user_id").
			Pluck("user_id", &userIDs).Error
		if err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to load role members"))
		}

		if len(userIDs) == 0 {
			return ErrNoEligibleReviewers.With("step %d: no active member holds %s", step.Order, *step.Role)
		}

		for _, id := range userIDs {
			a := base
			a.AssignedUserID = &id
			rows = append(rows, a)
		}

	case step.Role != nil:
		rows = append(rows, base)

	default:
		return ErrInvalidStep.With("step %d has neither role nor assignee", step.Order)
	}

	if err := tx.Create(&rows).Error; err != nil {
		return apperr.Internal(pkgerrors.Wrap(err, "failed to create assignments"))
	}

	if err := enqueueAssignments(tx, inst, rows); err != nil {
		return apperr.Internal(err)
	}

	return nil
}
