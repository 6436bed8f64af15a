package approval

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/models"
	"github.com/postdeck/postdeck/internal/notify"
)

func TestManagerApprovesClientRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.workflow(t, "two-step",
		roleStep(1, models.RoleManager, false),
		roleStep(2, models.RoleClientReviewer, false),
	)
	post := f.post(t, models.RoleEditor)

	inst, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InstanceInProgress, inst.Status)
	require.NotNil(t, inst.CurrentStepOrder)
	assert.Equal(t, 1, *inst.CurrentStepOrder)
	assert.Equal(t, models.PostPendingApproval, f.postStatus(t, post.ID))

	rows := f.assignments(t, inst.ID)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].AssignedUserID)
	assert.Equal(t, models.RoleManager, *rows[0].Role)

	res, err := f.engine.ReviewAssignment(ctx, f.userOf(models.RoleManager), rows[0].ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, ResultMovedToNextStep, res)

	rows = f.assignments(t, inst.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AssignmentApproved, rows[0].Status)
	assert.Equal(t, f.userOf(models.RoleManager), *rows[0].AssignedUserID)
	assert.Equal(t, 2, rows[1].StepOrder)

	res, err = f.engine.ReviewAssignment(ctx, f.userOf(models.RoleClientReviewer), rows[1].ID, false, "needs changes")
	require.NoError(t, err)
	assert.Equal(t, ResultRejected, res)

	got := f.reload(t, inst)
	assert.Equal(t, models.InstanceRejected, got.Status)
	assert.Nil(t, got.ActivePostID)
	assert.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.CurrentStepOrder)
	assert.Equal(t, 2, *got.CurrentStepOrder)
	assert.Equal(t, models.PostDraft, f.postStatus(t, post.ID))

	rows = f.assignments(t, inst.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AssignmentRejected, rows[1].Status)
	assert.Equal(t, "needs changes", rows[1].Feedback)

	topics := f.outboxTopics(t)
	assert.Len(t, topics, 3)
	assert.Contains(t, topics, notify.TopicInstanceRejected)
	assert.NotContains(t, topics, notify.TopicInstanceApproved)
}

func TestApproveAllSteps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.workflow(t, "direct",
		userStep(10, f.userOf(models.RoleAdmin)),
		userStep(20, f.userOf(models.RoleManager)),
	)
	post := f.post(t, models.RoleEditor)

	inst, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.NoError(t, err)

	rows := f.assignments(t, inst.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].StepOrder)

	res, err := f.engine.ReviewAssignment(ctx, f.userOf(models.RoleAdmin), rows[0].ID, true, "ok")
	require.NoError(t, err)
	assert.Equal(t, ResultMovedToNextStep, res)

	rows = f.assignments(t, inst.ID)
	require.Len(t, rows, 2)

	res, err = f.engine.ReviewAssignment(ctx, f.userOf(models.RoleManager), rows[1].ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, ResultApproved, res)

	got := f.reload(t, inst)
	assert.Equal(t, models.InstanceApproved, got.Status)
	assert.Nil(t, got.CurrentStepOrder)
	assert.Nil(t, got.ActivePostID)
	assert.Equal(t, models.PostApproved, f.postStatus(t, post.ID))
	assert.Contains(t, f.outboxTopics(t), notify.TopicInstanceApproved)

	// terminal instances take no more reviews
	_, err = f.engine.ReviewAssignment(ctx, f.userOf(models.RoleManager), rows[1].ID, true, "")
	require.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestFanOutWaitsForEveryReviewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second := f.member(t, "reviewer2", models.RoleClientReviewer)

	wf := f.workflow(t, "fan-out",
		roleStep(1, models.RoleClientReviewer, true),
		roleStep(2, models.RoleManager, false),
	)
	post := f.post(t, models.RoleEditor)

	inst, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.NoError(t, err)

	rows := f.assignments(t, inst.ID)
	require.Len(t, rows, 2)

	byUser := map[uint64]models.ApprovalAssignment{}
	for _, a := range rows {
		require.NotNil(t, a.AssignedUserID)
		byUser[*a.AssignedUserID] = a
	}

	first := byUser[f.userOf(models.RoleClientReviewer)]

	res, err := f.engine.ReviewAssignment(ctx, f.userOf(models.RoleClientReviewer), first.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, ResultWaitingForOthers, res)
	assert.Len(t, f.assignments(t, inst.ID), 2)

	res, err = f.engine.ReviewAssignment(ctx, second.UserID, byUser[second.UserID].ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, ResultMovedToNextStep, res)
	assert.Len(t, f.assignments(t, inst.ID), 3)
}

func TestRejectionCancelsSiblings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second := f.member(t, "reviewer2", models.RoleClientReviewer)
	wf := f.workflow(t, "fan-out", roleStep(1, models.RoleClientReviewer, true))
	post := f.post(t, models.RoleEditor)

	inst, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.NoError(t, err)

	var mine models.ApprovalAssignment
	for _, a := range f.assignments(t, inst.ID) {
		if *a.AssignedUserID == second.UserID {
			mine = a
		}
	}

	res, err := f.engine.ReviewAssignment(ctx, second.UserID, mine.ID, false, "no")
	require.NoError(t, err)
	assert.Equal(t, ResultRejected, res)

	for _, a := range f.assignments(t, inst.ID) {
		if a.ID == mine.ID {
			assert.Equal(t, models.AssignmentRejected, a.Status)
			continue
		}

		assert.Equal(t, models.AssignmentCancelled, a.Status)
		assert.NotNil(t, a.CompletedAt)
	}

	// the cancelled sibling can no longer be reviewed
	for _, a := range f.assignments(t, inst.ID) {
		if a.ID != mine.ID {
			_, err = f.engine.ReviewAssignment(ctx, *a.AssignedUserID, a.ID, true, "")
			require.ErrorIs(t, err, ErrAlreadyResolved)
		}
	}
}

func TestSubmitPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.workflow(t, "one", roleStep(1, models.RoleManager, false))
	post := f.post(t, models.RoleEditor)
	editor := f.userOf(models.RoleEditor)

	t.Run("post not found", func(t *testing.T) {
		_, err := f.engine.SubmitForApproval(ctx, editor, 9999, wf.ID)
		require.ErrorIs(t, err, ErrPostNotFound)
	})

	t.Run("workflow not found", func(t *testing.T) {
		_, err := f.engine.SubmitForApproval(ctx, editor, post.ID, 9999)
		require.ErrorIs(t, err, ErrWorkflowNotFound)
	})

	t.Run("non member", func(t *testing.T) {
		stranger, err := f.auth.CreateUser(ctx, "stranger", "stranger@example.com", "", "")
		require.NoError(t, err)

		_, err = f.engine.SubmitForApproval(ctx, stranger.ID, post.ID, wf.ID)
		require.ErrorIs(t, err, auth.ErrNotAMember)
	})

	t.Run("missing permission", func(t *testing.T) {
		_, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleViewer), post.ID, wf.ID)
		require.ErrorIs(t, err, auth.ErrPermissionMissing)
	})

	t.Run("workflow of another team", func(t *testing.T) {
		other, err := f.auth.CreateTeam(ctx, "other", f.userOf(models.RoleOwner))
		require.NoError(t, err)

		foreign := models.ApprovalWorkflow{TeamID: other.ID, Name: "foreign"}
		require.NoError(t, f.db.Create(&foreign).Error)

		_, err = f.engine.SubmitForApproval(ctx, editor, post.ID, foreign.ID)
		require.ErrorIs(t, err, ErrWorkflowNotFound)
	})

	t.Run("empty workflow", func(t *testing.T) {
		empty := models.ApprovalWorkflow{TeamID: f.team.ID, Name: "empty"}
		require.NoError(t, f.db.Create(&empty).Error)

		_, err := f.engine.SubmitForApproval(ctx, editor, post.ID, empty.ID)
		require.ErrorIs(t, err, ErrEmptyWorkflow)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("single active instance", func(t *testing.T) {
		_, err := f.engine.SubmitForApproval(ctx, editor, post.ID, wf.ID)
		require.NoError(t, err)

		_, err = f.engine.SubmitForApproval(ctx, editor, post.ID, wf.ID)
		require.ErrorIs(t, err, ErrAlreadyInApproval)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

		var count int64
		require.NoError(t, f.db.Model(&models.ApprovalInstance{}).Where("post_id = ?", post.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("post not draft", func(t *testing.T) {
		published := f.post(t, models.RoleEditor)
		require.NoError(t, f.db.Model(&published).Update("status", models.PostPublished).Error)

		_, err := f.engine.SubmitForApproval(ctx, editor, published.ID, wf.ID)
		require.ErrorIs(t, err, ErrPostNotDraft)
	})
}

func TestResubmitAfterRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.workflow(t, "one", userStep(1, f.userOf(models.RoleManager)))
	post := f.post(t, models.RoleEditor)
	editor := f.userOf(models.RoleEditor)

	first, err := f.engine.SubmitForApproval(ctx, editor, post.ID, wf.ID)
	require.NoError(t, err)

	rows := f.assignments(t, first.ID)
	_, err = f.engine.ReviewAssignment(ctx, f.userOf(models.RoleManager), rows[0].ID, false, "again")
	require.NoError(t, err)

	second, err := f.engine.SubmitForApproval(ctx, editor, post.ID, wf.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.InstanceRejected, f.reload(t, first).Status)
}

func TestNoEligibleReviewersRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.members[models.RoleViewer]
	wf := f.workflow(t, "viewers", roleStep(1, models.RoleViewer, true))
	require.NoError(t, f.db.Model(&viewer).UpdateColumn("status", models.MembershipSuspended).Error)

	post := f.post(t, models.RoleEditor)

	_, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.ErrorIs(t, err, ErrNoEligibleReviewers)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	var count int64
	require.NoError(t, f.db.Model(&models.ApprovalInstance{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, models.PostDraft, f.postStatus(t, post.ID))
	assert.Empty(t, f.outboxTopics(t))
}

func TestReviewAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.workflow(t, "mixed",
		userStep(1, f.userOf(models.RoleAdmin)),
		roleStep(2, models.RoleClientReviewer, false),
	)
	post := f.post(t, models.RoleEditor)

	inst, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.NoError(t, err)

	rows := f.assignments(t, inst.ID)

	t.Run("not the assignee", func(t *testing.T) {
		_, err := f.engine.ReviewAssignment(ctx, f.userOf(models.RoleOwner), rows[0].ID, true, "")
		require.ErrorIs(t, err, ErrNotAssignee)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("outsider sees not found", func(t *testing.T) {
		stranger, err := f.auth.CreateUser(ctx, "stranger", "stranger@example.com", "", "")
		require.NoError(t, err)

		_, err = f.engine.ReviewAssignment(ctx, stranger.ID, rows[0].ID, true, "")
		require.ErrorIs(t, err, ErrAssignmentNotFound)
	})

	t.Run("unknown assignment", func(t *testing.T) {
		_, err := f.engine.ReviewAssignment(ctx, f.userOf(models.RoleAdmin), 9999, true, "")
		require.ErrorIs(t, err, ErrAssignmentNotFound)
	})

	_, err = f.engine.ReviewAssignment(ctx, f.userOf(models.RoleAdmin), rows[0].ID, true, "")
	require.NoError(t, err)

	rows = f.assignments(t, inst.ID)
	require.Len(t, rows, 2)

	t.Run("wrong role can not claim", func(t *testing.T) {
		_, err := f.engine.ReviewAssignment(ctx, f.userOf(models.RoleManager), rows[1].ID, true, "")
		require.ErrorIs(t, err, ErrNotAssignee)

		var a models.ApprovalAssignment
		require.NoError(t, f.db.First(&a, rows[1].ID).Error)
		assert.Nil(t, a.AssignedUserID)
	})

	t.Run("role holder claims", func(t *testing.T) {
		res, err := f.engine.ReviewAssignment(ctx, f.userOf(models.RoleClientReviewer), rows[1].ID, true, "")
		require.NoError(t, err)
		assert.Equal(t, ResultApproved, res)

		var a models.ApprovalAssignment
		require.NoError(t, f.db.First(&a, rows[1].ID).Error)
		require.NotNil(t, a.AssignedUserID)
		assert.Equal(t, f.userOf(models.RoleClientReviewer), *a.AssignedUserID)
	})

	t.Run("double review", func(t *testing.T) {
		_, err := f.engine.ReviewAssignment(ctx, f.userOf(models.RoleClientReviewer), rows[1].ID, true, "")
		require.ErrorIs(t, err, ErrAlreadyResolved)
	})
}

func TestAdvanceIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.workflow(t, "gaps",
		userStep(5, f.userOf(models.RoleManager)),
		userStep(2, f.userOf(models.RoleAdmin)),
		userStep(9, f.userOf(models.RoleClientReviewer)),
	)
	post := f.post(t, models.RoleEditor)

	inst, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.NoError(t, err)

	order := []int{*inst.CurrentStepOrder}
	reviewers := map[int]uint64{
		2: f.userOf(models.RoleAdmin),
		5: f.userOf(models.RoleManager),
		9: f.userOf(models.RoleClientReviewer),
	}

	for {
		rows := f.assignments(t, inst.ID)
		last := rows[len(rows)-1]

		res, err := f.engine.ReviewAssignment(ctx, reviewers[last.StepOrder], last.ID, true, "")
		require.NoError(t, err)

		if res == ResultApproved {
			break
		}

		got := f.reload(t, inst)
		order = append(order, *got.CurrentStepOrder)
	}

	assert.Equal(t, []int{2, 5, 9}, order)

	// advancing an approved instance is not a valid transition
	got := f.reload(t, inst)
	_, err = f.engine.advance(f.db, &got)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConcurrentFanOutReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.member(t, "reviewer2", models.RoleClientReviewer)
	wf := f.workflow(t, "fan-out",
		roleStep(1, models.RoleClientReviewer, true),
		roleStep(2, models.RoleManager, false),
	)
	post := f.post(t, models.RoleEditor)

	inst, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.NoError(t, err)

	rows := f.assignments(t, inst.ID)
	require.Len(t, rows, 2)

	var (
		wg      sync.WaitGroup
		results = make([]ReviewResult, len(rows))
		errs    = make([]error, len(rows))
	)

	for i, a := range rows {
		wg.Add(1)

		go func() {
			defer wg.Done()
			results[i], errs[i] = f.engine.ReviewAssignment(ctx, *a.AssignedUserID, a.ID, true, "")
		}()
	}

	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []ReviewResult{ResultWaitingForOthers, ResultMovedToNextStep}, results)
	assert.Len(t, f.assignments(t, inst.ID), 3)
}
