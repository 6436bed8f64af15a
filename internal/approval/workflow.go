package approval

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/models"
)

var validate = validator.New() //nolint:gochecknoglobals

// WorkflowInput describes a workflow to create or update.
type WorkflowInput struct {
	Name        string      `json:"name" validate:"required,max=100"`
	Description string      `json:"description" validate:"max=255"`
	Steps       []StepInput `json:"steps" validate:"dive"`
}

// StepInput describes one workflow step.
type StepInput struct {
	Order                 int          `json:"order" validate:"gt=0"`
	Role                  *models.Role `json:"role,omitempty"`
	AssignedUserID        *uint64      `json:"assignedUserId,omitempty"`
	RequireAllUsersInRole bool         `json:"requireAllUsersInRole"`
}

// CreateWorkflow creates a workflow with its steps. Requires workflow.manage.
func (e *Engine) CreateWorkflow(ctx context.Context, actorID, teamID uint64, in WorkflowInput) (*models.ApprovalWorkflow, error) {
	if err := validate.Struct(in); err != nil {
		return nil, auth.ValidationError(err)
	}

	wf := models.ApprovalWorkflow{TeamID: teamID, Name: in.Name, Description: in.Description}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.auth.WithTx(tx).Authorize(ctx, actorID, teamID, auth.PermWorkflowManage); err != nil {
			return err
		}

		if err := checkSteps(tx, teamID, in.Steps); err != nil {
			return err
		}

		if err := tx.Omit("Steps").Create(&wf).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrWorkflowExists.With("%s", in.Name)
			}

			return apperr.Internal(pkgerrors.Wrap(err, "failed to create workflow"))
		}

		return writeSteps(tx, &wf, in.Steps)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("actor_id", actorID).Uint64("team_id", teamID).Str("workflow", wf.Name).
		Int("steps", len(wf.Steps)).Msg("workflow created")

	return &wf, nil
}

// UpdateWorkflow changes a workflow's name and description. When in.Steps is not nil the
// steps are replaced as well, which is refused while the workflow has active instances.
// Requires workflow.manage.
func (e *Engine) UpdateWorkflow(
	ctx context.Context,
	actorID, teamID, workflowID uint64,
	in WorkflowInput,
) (*models.ApprovalWorkflow, error) {
	if err := validate.Struct(in); err != nil {
		return nil, auth.ValidationError(err)
	}

	var wf models.ApprovalWorkflow

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.auth.WithTx(tx).Authorize(ctx, actorID, teamID, auth.PermWorkflowManage); err != nil {
			return err
		}

		if err := loadWorkflow(tx, teamID, workflowID, &wf); err != nil {
			return err
		}

		err := tx.Model(&wf).Updates(map[string]any{"name": in.Name, "description": in.Description}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrWorkflowExists.With("%s", in.Name)
			}

			return apperr.Internal(pkgerrors.Wrap(err, "failed to update workflow"))
		}

		if in.Steps == nil {
			if err = tx.Where("workflow_id = ?", wf.ID).Order("step_order").Find(&wf.Steps).Error; err != nil {
				return apperr.Internal(pkgerrors.Wrap(err, "failed to load workflow steps"))
			}

			return nil
		}

		if err = checkNotInUse(tx, wf.ID); err != nil {
			return err
		}

		if err = checkSteps(tx, teamID, in.Steps); err != nil {
			return err
		}

		if err = tx.Where("workflow_id = ?", wf.ID).Delete(&models.ApprovalStep{}).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to clear workflow steps"))
		}

		return writeSteps(tx, &wf, in.Steps)
	})
	if err != nil {
		return nil, err
	}

	return &wf, nil
}

// DeleteWorkflow deletes a workflow without active instances. Requires workflow.manage.
func (e *Engine) DeleteWorkflow(ctx context.Context, actorID, teamID, workflowID uint64) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.auth.WithTx(tx).Authorize(ctx, actorID, teamID, auth.PermWorkflowManage); err != nil {
			return err
		}

		var wf models.ApprovalWorkflow
		if err := loadWorkflow(tx, teamID, workflowID, &wf); err != nil {
			return err
		}

		if err := checkNotInUse(tx, wf.ID); err != nil {
			return err
		}

		if err := tx.Where("workflow_id = ?", wf.ID).Delete(&models.ApprovalStep{}).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to delete workflow steps"))
		}

		if err := tx.Delete(&wf).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to delete workflow"))
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Uint64("actor_id", actorID).Uint64("team_id", teamID).Uint64("workflow_id", workflowID).
		Msg("workflow deleted")

	return nil
}

// GetWorkflow returns a workflow with its steps in order. Any active member may read it.
func (e *Engine) GetWorkflow(ctx context.Context, actorID, teamID, workflowID uint64) (*models.ApprovalWorkflow, error) {
	if _, err := e.auth.ActiveMembership(ctx, actorID, teamID); err != nil {
		return nil, err
	}

	db := e.db.WithContext(ctx)

	var wf models.ApprovalWorkflow
	if err := loadWorkflow(db, teamID, workflowID, &wf); err != nil {
		return nil, err
	}

	if err := db.Where("workflow_id = ?", wf.ID).Order("step_order").Find(&wf.Steps).Error; err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to load workflow steps"))
	}

	return &wf, nil
}

// ListWorkflows returns the team's workflows with their steps. Any active member may read them.
func (e *Engine) ListWorkflows(ctx context.Context, actorID, teamID uint64) ([]models.ApprovalWorkflow, error) {
	if _, err := e.auth.ActiveMembership(ctx, actorID, teamID); err != nil {
		return nil, err
	}

	var workflows []models.ApprovalWorkflow

	err := e.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("step_order") }).
		Where("team_id = ?", teamID).Order("name").Find(&workflows).Error
	if err != nil {
		return nil, apperr.Internal(pkgerrors.Wrap(err, "failed to list workflows"))
	}

	return workflows, nil
}

func loadWorkflow(tx *gorm.DB, teamID, workflowID uint64, wf *models.ApprovalWorkflow) error {
	err := tx.Where("id = ? AND team_id = ?", workflowID, teamID).First(wf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrWorkflowNotFound.With("id %d", workflowID)
	}

	if err != nil {
		return apperr.Internal(pkgerrors.Wrap(err, "failed to load workflow"))
	}

	return nil
}

func checkNotInUse(tx *gorm.DB, workflowID uint64) error {
	var active int64

	err := tx.Model(&models.ApprovalInstance{}).
		Where("workflow_id = ? AND active_post_id IS NOT NULL", workflowID).
		Count(&active).Error
	if err != nil {
		return apperr.Internal(pkgerrors.Wrap(err, "failed to count active instances"))
	}

	if active > 0 {
		return ErrWorkflowInUse.With("workflow %d has %d active instances", workflowID, active)
	}

	return nil
}

// checkSteps validates step shape and that every assigned user is an active team member.
func checkSteps(tx *gorm.DB, teamID uint64, steps []StepInput) error {
	if len(steps) == 0 {
		return ErrEmptyWorkflow
	}

	seen := make(map[int]struct{}, len(steps))

	for _, s := range steps {
		if _, dup := seen[s.Order]; dup {
			return ErrInvalidStep.With("duplicate order %d", s.Order)
		}

		seen[s.Order] = struct{}{}

		if (s.Role == nil) == (s.AssignedUserID == nil) {
			return ErrInvalidStep.With("step %d needs exactly one of role and assignedUserId", s.Order)
		}

		if s.Role != nil && !s.Role.Valid() {
			return ErrInvalidStep.With("step %d: unknown role %q", s.Order, *s.Role)
		}

		if s.RequireAllUsersInRole && s.Role == nil {
			return ErrInvalidStep.With("step %d: requireAllUsersInRole needs a role", s.Order)
		}

		if s.AssignedUserID == nil {
			continue
		}

		var count int64

		err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND team_id = ? AND status = ?", *s.AssignedUserID, teamID, models.MembershipActive).
			Count(&count).Error
		if err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to check step assignee"))
		}

		if count == 0 {
			return ErrInvalidStep.With("step %d: user %d is not an active team member", s.Order, *s.AssignedUserID)
		}
	}

	return nil
}

func writeSteps(tx *gorm.DB, wf *models.ApprovalWorkflow, steps []StepInput) error {
	wf.Steps = make([]models.ApprovalStep, 0, len(steps))
	for _, s := range steps {
		wf.Steps = append(wf.Steps, models.ApprovalStep{
			WorkflowID:            wf.ID,
			Order:                 s.Order,
			Role:                  s.Role,
			AssignedUserID:        s.AssignedUserID,
			RequireAllUsersInRole: s.RequireAllUsersInRole,
		})
	}

	slices.SortFunc(wf.Steps, func(a, b models.ApprovalStep) int { return cmp.Compare(a.Order, b.Order) })

	if err := tx.Create(&wf.Steps).Error; err != nil {
		return apperr.Internal(pkgerrors.Wrap(err, "failed to write workflow steps"))
	}

	return nil
}
