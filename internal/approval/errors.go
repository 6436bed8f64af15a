package approval

import "github.com/postdeck/postdeck/internal/apperr"

var (
	// ErrPostNotFound is returned when the post does not exist.
	ErrPostNotFound = apperr.New(apperr.KindNotFound, "POST_NOT_FOUND", "post not found")

	// ErrWorkflowNotFound is returned when the workflow does not exist in the team.
	ErrWorkflowNotFound = apperr.New(apperr.KindNotFound, "WORKFLOW_NOT_FOUND", "workflow not found")

	// ErrAssignmentNotFound is returned when the assignment does not exist or is outside the caller's teams.
	ErrAssignmentNotFound = apperr.New(apperr.KindNotFound, "ASSIGNMENT_NOT_FOUND", "assignment not found")

	// ErrInstanceNotFound is returned when the instance does not exist or is outside the caller's teams.
	ErrInstanceNotFound = apperr.New(apperr.KindNotFound, "INSTANCE_NOT_FOUND", "approval instance not found")

	// ErrEmptyWorkflow is returned for workflows without steps.
	ErrEmptyWorkflow = apperr.New(apperr.KindValidation, "EMPTY_WORKFLOW", "workflow has no steps")

	// ErrInvalidStep is returned for malformed workflow steps.
	ErrInvalidStep = apperr.New(apperr.KindValidation, "INVALID_STEP", "invalid workflow step")

	// ErrNoEligibleReviewers is returned when a step can not be assigned to anybody.
	ErrNoEligibleReviewers = apperr.New(apperr.KindValidation, "NO_ELIGIBLE_REVIEWERS", "no eligible reviewers for step")

	// ErrAlreadyInApproval is returned when the post already has an active approval instance.
	ErrAlreadyInApproval = apperr.New(apperr.KindConflict, "ALREADY_IN_APPROVAL", "post is already in approval")

	// ErrPostNotDraft is returned when a post outside the draft state is submitted.
	ErrPostNotDraft = apperr.New(apperr.KindConflict, "POST_NOT_DRAFT", "only draft posts can be submitted")

	// ErrAlreadyResolved is returned when reviewing an assignment or instance that is no longer pending.
	ErrAlreadyResolved = apperr.New(apperr.KindConflict, "ALREADY_RESOLVED", "assignment is already resolved")

	// ErrWorkflowExists is returned when the workflow name is taken in the team.
	ErrWorkflowExists = apperr.New(apperr.KindConflict, "WORKFLOW_EXISTS", "workflow already exists")

	// ErrWorkflowInUse is returned when changing the steps of, or deleting, a workflow with active instances.
	ErrWorkflowInUse = apperr.New(apperr.KindConflict, "WORKFLOW_IN_USE", "workflow has active approval instances")

	// ErrNotAssignee is returned when the reviewer is neither the assignee nor holds the step's role.
	ErrNotAssignee = apperr.New(apperr.KindForbidden, "NOT_ASSIGNEE", "user may not review this assignment")

	// ErrInvalidTransition is returned when a status change is not in the transition table.
	ErrInvalidTransition = apperr.New(apperr.KindInternal, "INVALID_TRANSITION", "invalid status transition")
)
