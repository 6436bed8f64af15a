package approval

import (
	"slices"

	"github.com/postdeck/postdeck/internal/db/models"
)

// transitions is a table of allowed status changes.
type transitions[S ~string] struct {
	allowed map[S][]S
}

func newTransitions[S ~string]() *transitions[S] {
	return &transitions[S]{allowed: make(map[S][]S)}
}

// allow registers valid transitions from a source state.
func (t *transitions[S]) allow(from S, to ...S) *transitions[S] {
	for _, target := range to {
		if !slices.Contains(t.allowed[from], target) {
			t.allowed[from] = append(t.allowed[from], target)
		}
	}

	return t
}

// can reports whether from -> to is allowed.
func (t *transitions[S]) can(from, to S) bool {
	return slices.Contains(t.allowed[from], to)
}

// check returns ErrInvalidTransition unless from -> to is allowed.
func (t *transitions[S]) check(from, to S) error {
	if !t.can(from, to) {
		return ErrInvalidTransition.With("%s -> %s", from, to)
	}

	return nil
}

// The status lifecycles. IN_PROGRESS -> IN_PROGRESS is a step advance.
var instanceTransitions = newTransitions[models.InstanceStatus](). //nolint:gochecknoglobals
	allow(models.InstancePending, models.InstanceInProgress).
	allow(models.InstanceInProgress, models.InstanceInProgress, models.InstanceApproved, models.InstanceRejected)

var assignmentTransitions = newTransitions[models.AssignmentStatus](). //nolint:gochecknoglobals
	allow(models.AssignmentPending, models.AssignmentApproved, models.AssignmentRejected, models.AssignmentCancelled)

// Verdict is the combined outcome of one step's assignments.
type Verdict string

// Step verdicts.
const (
	VerdictWaiting  Verdict = "WAITING"
	VerdictApproved Verdict = "APPROVED"
	VerdictRejected Verdict = "REJECTED"
)

// Decide combines the statuses of one step's assignments.
// Any rejection rejects the step, it is approved once every assignment is approved.
func Decide(statuses []models.AssignmentStatus) Verdict {
	if len(statuses) == 0 {
		return VerdictWaiting
	}

	if slices.Contains(statuses, models.AssignmentRejected) {
		return VerdictRejected
	}

	for _, s := range statuses {
		if s != models.AssignmentApproved {
			return VerdictWaiting
		}
	}

	return VerdictApproved
}

// ReviewResult is the outcome reported to a reviewer.
type ReviewResult string

// Review results.
const (
	ResultRejected         ReviewResult = "REJECTED"
	ResultWaitingForOthers ReviewResult = "WAITING_FOR_OTHERS"
	ResultApproved         ReviewResult = "APPROVED"
	ResultMovedToNextStep  ReviewResult = "MOVED_TO_NEXT_STEP"
)
