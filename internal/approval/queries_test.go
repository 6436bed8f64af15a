package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/models"
)

func TestAssignedAndMyRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	editor := f.userOf(models.RoleEditor)

	wf := f.workflow(t, "mixed",
		roleStep(1, models.RoleManager, false),
		userStep(2, f.userOf(models.RoleClientReviewer)),
	)

	first := f.post(t, models.RoleEditor)
	second := f.post(t, models.RoleEditor)

	inst1, err := f.engine.SubmitForApproval(ctx, editor, first.ID, wf.ID)
	require.NoError(t, err)

	_, err = f.engine.SubmitForApproval(ctx, editor, second.ID, wf.ID)
	require.NoError(t, err)

	manager := f.userOf(models.RoleManager)

	assigned, err := f.engine.GetAssignedRequests(ctx, manager, f.team.ID, models.AssignmentPending)
	require.NoError(t, err)
	require.Len(t, assigned, 2)
	assert.Equal(t, first.ID, assigned[0].PostID)
	assert.Equal(t, wf.ID, assigned[0].WorkflowID)
	assert.Equal(t, editor, assigned[0].SubmittedByID)

	// other roles do not see claimable manager work
	assigned, err = f.engine.GetAssignedRequests(ctx, f.userOf(models.RoleClientReviewer), f.team.ID, "")
	require.NoError(t, err)
	assert.Empty(t, assigned)

	_, err = f.engine.ReviewAssignment(ctx, manager, f.assignments(t, inst1.ID)[0].ID, true, "")
	require.NoError(t, err)

	assigned, err = f.engine.GetAssignedRequests(ctx, f.userOf(models.RoleClientReviewer), f.team.ID, models.AssignmentPending)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, inst1.ID, assigned[0].InstanceID)

	// claimed and approved work stays visible to the claimer
	assigned, err = f.engine.GetAssignedRequests(ctx, manager, f.team.ID, models.AssignmentApproved)
	require.NoError(t, err)
	require.Len(t, assigned, 1)

	mine, err := f.engine.GetMyRequests(ctx, editor, f.team.ID, "")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Len(t, mine[1].Assignments, 2)

	mine, err = f.engine.GetMyRequests(ctx, f.userOf(models.RoleAdmin), f.team.ID, "")
	require.NoError(t, err)
	assert.Empty(t, mine)

	stranger, err := f.auth.CreateUser(ctx, "stranger", "stranger@example.com", "", "")
	require.NoError(t, err)

	_, err = f.engine.GetAssignedRequests(ctx, stranger.ID, f.team.ID, "")
	require.ErrorIs(t, err, auth.ErrNotAMember)

	_, err = f.engine.GetMyRequests(ctx, stranger.ID, f.team.ID, "")
	require.ErrorIs(t, err, auth.ErrNotAMember)
}

func TestRequestListsRejectUnknownStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.GetAssignedRequests(ctx, f.userOf(models.RoleManager), f.team.ID, "DONE")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.engine.GetMyRequests(ctx, f.userOf(models.RoleEditor), f.team.ID, "pending")
	require.ErrorIs(t, err, apperr.ErrValidation)

	for _, st := range []models.AssignmentStatus{
		models.AssignmentPending, models.AssignmentApproved, models.AssignmentRejected, models.AssignmentCancelled,
	} {
		_, err = f.engine.GetAssignedRequests(ctx, f.userOf(models.RoleManager), f.team.ID, st)
		require.NoError(t, err, st)
	}
}

func TestGetInstance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.workflow(t, "one", roleStep(1, models.RoleManager, false))
	post := f.post(t, models.RoleEditor)

	inst, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.NoError(t, err)

	got, err := f.engine.GetInstance(ctx, f.userOf(models.RoleViewer), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.PostID)
	assert.Len(t, got.Assignments, 1)

	stranger, err := f.auth.CreateUser(ctx, "stranger", "stranger@example.com", "", "")
	require.NoError(t, err)

	_, err = f.engine.GetInstance(ctx, stranger.ID, inst.ID)
	require.ErrorIs(t, err, ErrInstanceNotFound)

	_, err = f.engine.GetInstance(ctx, f.userOf(models.RoleViewer), 9999)
	require.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestStaleReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.workflow(t, "one", roleStep(1, models.RoleManager, false))
	post := f.post(t, models.RoleEditor)

	inst, err := f.engine.SubmitForApproval(ctx, f.userOf(models.RoleEditor), post.ID, wf.ID)
	require.NoError(t, err)

	rows, err := f.engine.FindStaleAssignments(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, rows)

	f.engine.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	reporter := NewStaleReporter(f.engine, time.Hour)

	n, err := reporter.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// reporting never changes state
	got := f.reload(t, inst)
	assert.Equal(t, models.InstanceInProgress, got.Status)
	assert.Equal(t, models.AssignmentPending, f.assignments(t, inst.ID)[0].Status)
}
