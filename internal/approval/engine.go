package approval

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/database"
	"github.com/postdeck/postdeck/internal/db/models"
)

// Engine drives approval instances. It keeps no state between calls; everything lives in the database.
type Engine struct {
	db   *gorm.DB
	auth *auth.Service
	now  func() time.Time
}

// NewEngine creates an approval engine.
func NewEngine(db *gorm.DB, authService *auth.Service) *Engine {
	return &Engine{db: db, auth: authService, now: time.Now}
}

// SubmitForApproval starts the workflow for a draft post.
//
// The actor needs content.submit in the post's team. The post row is locked for the
// duration of the transaction and the unique active-post index turns a concurrent
// duplicate submission into ErrAlreadyInApproval.
func (e *Engine) SubmitForApproval(ctx context.Context, actorID, postID, workflowID uint64) (*models.ApprovalInstance, error) {
	var inst models.ApprovalInstance

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := database.ForUpdate(tx).First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound.With("id %d", postID)
			}

			return apperr.Internal(pkgerrors.Wrap(err, "failed to load post"))
		}

		if err := e.auth.WithTx(tx).Authorize(ctx, actorID, post.TeamID, auth.PermContentSubmit); err != nil {
			return err
		}

		var wf models.ApprovalWorkflow
		if err := tx.Where("id = ? AND team_id = ?", workflowID, post.TeamID).First(&wf).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkflowNotFound.With("id %d", workflowID)
			}

			return apperr.Internal(pkgerrors.Wrap(err, "failed to load workflow"))
		}

		var steps int64
		if err := tx.Model(&models.ApprovalStep{}).Where("workflow_id = ?", wf.ID).Count(&steps).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to count steps"))
		}

		if steps == 0 {
			return ErrEmptyWorkflow.With("workflow %d", wf.ID)
		}

		var active int64
		if err := tx.Model(&models.ApprovalInstance{}).Where("active_post_id = ?", post.ID).Count(&active).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to check active instances"))
		}

		if active > 0 {
			return ErrAlreadyInApproval.With("post %d", post.ID)
		}

		if post.Status != models.PostDraft {
			return ErrPostNotDraft.With("post %d is %s", post.ID, post.Status)
		}

		inst = models.ApprovalInstance{
			PostID:        post.ID,
			WorkflowID:    wf.ID,
			TeamID:        post.TeamID,
			SubmittedByID: actorID,
			Status:        models.InstancePending,
			ActivePostID:  &post.ID,
		}

		if err := tx.Omit("Assignments").Create(&inst).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyInApproval.With("post %d", post.ID)
			}

			return apperr.Internal(pkgerrors.Wrap(err, "failed to create instance"))
		}

		if err := setPostStatus(tx, post.ID, models.PostPendingApproval); err != nil {
			return err
		}

		_, err := e.advance(tx, &inst)

		return err
	})
	if err != nil {
		return nil, err
	}

	submissions.Inc()
	log.Info().Uint64("actor_id", actorID).Uint64("post_id", postID).Uint64("workflow_id", workflowID).
		Uint64("instance_id", inst.ID).Msg("post submitted for approval")

	return &inst, nil
}

// ReviewAssignment records approve or reject on an assignment.
//
// The instance row is locked before the assignment row, so concurrent reviews of one
// instance serialize and exactly one of them sees its step complete.
func (e *Engine) ReviewAssignment(
	ctx context.Context,
	actorID, assignmentID uint64,
	approve bool,
	feedback string,
) (ReviewResult, error) {
	var result ReviewResult

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.ApprovalAssignment
		if err := tx.First(&a, assignmentID).Error; err != nil {
			return assignmentLoadError(err, assignmentID)
		}

		var inst models.ApprovalInstance
		if err := database.ForUpdate(tx).First(&inst, a.InstanceID).Error; err != nil {
			return apperr.Internal(pkgerrors.Wrap(err, "failed to lock instance"))
		}

		// read again under the lock, a concurrent review may have resolved it
		if err := database.ForUpdate(tx).First(&a, assignmentID).Error; err != nil {
			return assignmentLoadError(err, assignmentID)
		}

		member, err := e.auth.WithTx(tx).ActiveMembership(ctx, actorID, inst.TeamID)
		if err != nil {
			if errors.Is(err, auth.ErrNotAMember) {
				return ErrAssignmentNotFound.With("id %d", assignmentID)
			}

			return err
		}

		if a.Status != models.AssignmentPending || inst.Status.Terminal() {
			return ErrAlreadyResolved.With("assignment %d is %s", a.ID, a.Status)
		}

		if err = e.claim(tx, &a, member); err != nil {
			return err
		}

		if approve {
			result, err = e.approve(tx, &inst, &a, feedback)
		} else {
			result, err = e.reject(tx, &inst, &a, feedback)
		}

		return err
	})
	if err != nil {
		return "", err
	}

	reviews.WithLabelValues(string(result)).Inc()
	log.Info().Uint64("actor_id", actorID).Uint64("assignment_id", assignmentID).Bool("approve", approve).
		Str("result", string(result)).Msg("assignment reviewed")

	return result, nil
}

// claim checks that member may review a and binds an unassigned a to them.
func (e *Engine) claim(tx *gorm.DB, a *models.ApprovalAssignment, member *models.Membership) error {
	if a.AssignedUserID != nil {
		if *a.AssignedUserID != member.UserID {
			return ErrNotAssignee.With("assignment %d", a.ID)
		}

		return nil
	}

	if a.Role == nil || !member.HasRole(*a.Role) {
		return ErrNotAssignee.With("assignment %d requires role %v", a.ID, derefRole(a.Role))
	}

	res := tx.Model(&models.ApprovalAssignment{}).
		Where("id = ? AND assigned_user_id IS NULL AND status = ?", a.ID, models.AssignmentPending).
		Update("assigned_user_id", member.UserID)
	if res.Error != nil {
		return apperr.Internal(pkgerrors.Wrap(res.Error, "failed to claim assignment"))
	}

	if res.RowsAffected == 0 {
		return ErrAlreadyResolved.With("assignment %d was claimed", a.ID)
	}

	a.AssignedUserID = &member.UserID

	return nil
}

func (e *Engine) reject(
	tx *gorm.DB,
	inst *models.ApprovalInstance,
	a *models.ApprovalAssignment,
	feedback string,
) (ReviewResult, error) {
	now := e.now()

	if err := e.resolveAssignment(tx, a, models.AssignmentRejected, feedback, now); err != nil {
		return "", err
	}

	// the instance is over, nobody else needs to review
	err := tx.Model(&models.ApprovalAssignment{}).
		Where("instance_id = ? AND status = ?", inst.ID, models.AssignmentPending).
		Updates(map[string]any{"status": models.AssignmentCancelled, "completed_at": now}).Error
	if err != nil {
		return "", apperr.Internal(pkgerrors.Wrap(err, "failed to cancel sibling assignments"))
	}

	if err = instanceTransitions.check(inst.Status, models.InstanceRejected); err != nil {
		return "", err
	}

	inst.Status = models.InstanceRejected
	inst.ActivePostID = nil
	inst.CompletedAt = &now

	if err = saveInstance(tx, inst); err != nil {
		return "", err
	}

	if err = setPostStatus(tx, inst.PostID, models.PostDraft); err != nil {
		return "", err
	}

	if err = enqueueCompleted(tx, inst, *a.AssignedUserID, feedback); err != nil {
		return "", apperr.Internal(err)
	}

	return ResultRejected, nil
}

func (e *Engine) approve(
	tx *gorm.DB,
	inst *models.ApprovalInstance,
	a *models.ApprovalAssignment,
	feedback string,
) (ReviewResult, error) {
	if err := e.resolveAssignment(tx, a, models.AssignmentApproved, feedback, e.now()); err != nil {
		return "", err
	}

	var statuses []models.AssignmentStatus

	err := tx.Model(&models.ApprovalAssignment{}).
		Where("instance_id = ? AND step_order = ?", inst.ID, a.StepOrder).
		Pluck("status", &statuses).Error
	if err != nil {
		return "", apperr.Internal(pkgerrors.Wrap(err, "failed to load step assignments"))
	}

	switch Decide(statuses) {
	case VerdictApproved:
		return e.advance(tx, inst)
	case VerdictRejected:
		return "", ErrAlreadyResolved.With("step %d was rejected", a.StepOrder)
	default:
		return ResultWaitingForOthers, nil
	}
}

func (e *Engine) resolveAssignment(
	tx *gorm.DB,
	a *models.ApprovalAssignment,
	to models.AssignmentStatus,
	feedback string,
	now time.Time,
) error {
	if err := assignmentTransitions.check(a.Status, to); err != nil {
		return err
	}

	a.Status = to
	a.Feedback = feedback
	a.CompletedAt = &now

	err := tx.Model(a).Select("status", "feedback", "completed_at", "updated_at").Updates(a).Error
	if err != nil {
		return apperr.Internal(pkgerrors.Wrap(err, "failed to update assignment"))
	}

	return nil
}

func assignmentLoadError(err error, id uint64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAssignmentNotFound.With("id %d", id)
	}

	return apperr.Internal(pkgerrors.Wrap(err, "failed to load assignment"))
}

func setPostStatus(tx *gorm.DB, postID uint64, status models.PostStatus) error {
	err := tx.Model(&models.Post{}).Where("id = ?", postID).Update("status", status).Error
	if err != nil {
		return apperr.Internal(pkgerrors.Wrapf(err, "failed to set post %d to %s", postID, status))
	}

	return nil
}

func saveInstance(tx *gorm.DB, inst *models.ApprovalInstance) error {
	err := tx.Model(inst).
		Select("status", "current_step_order", "active_post_id", "completed_at", "updated_at").
		Updates(inst).Error
	if err != nil {
		return apperr.Internal(pkgerrors.Wrap(err, "failed to update instance"))
	}

	return nil
}

func derefRole(r *models.Role) models.Role {
	if r == nil {
		return ""
	}

	return *r
}
