// Package approval runs posts through their team's approval workflows.
//
// A workflow is an ordered list of steps. Submitting a post creates an approval
// instance at the first step and materializes that step's assignments:
//   - a step with a specific assignee gets one assignment for that user
//   - a step requiring all users in a role gets one assignment per active member holding it
//   - any other role step gets one unassigned assignment, claimed by its first reviewer
//
// Reviews run in one transaction that locks the instance and then the assignment.
// A rejection ends the instance and sends the post back to draft. An approval that
// completes its step advances the instance to the next step or approves it.
//
// Instance and assignment statuses only change along the transitions declared in fsm.go.
package approval
