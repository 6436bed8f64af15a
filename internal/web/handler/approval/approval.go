// Package approval provides handlers for submitting posts and reviewing assignments.
package approval

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postdeck/postdeck/internal/approval"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/models"
	"github.com/postdeck/postdeck/internal/web/handler"
)

const (
	// SubmitPath starts the approval of a post.
	SubmitPath = "/posts/:postId/approval"
	// ReviewPath records a decision on an assignment.
	ReviewPath = "/assignments/:assignmentId/review"
	// InstancePath shows one approval instance.
	InstancePath = "/approvals/:instanceId"
	// AssignedPath lists the caller's review work in a team.
	AssignedPath = handler.TeamPath + "/approvals/assigned"
	// MinePath lists the caller's submissions in a team.
	MinePath = handler.TeamPath + "/approvals/mine"
)

// SubmitRequest names the workflow to run.
type SubmitRequest struct {
	WorkflowID uint64 `json:"workflowId"`
}

// ReviewRequest carries a reviewer's decision.
type ReviewRequest struct {
	Approve  bool   `json:"approve"`
	Feedback string `json:"feedback"`
}

// ReviewResponse reports the outcome of a review.
type ReviewResponse struct {
	Result approval.ReviewResult `json:"result"`
}

// Service serves approval routes.
type Service struct {
	engine *approval.Engine
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps handler.Deps) error {
	if router == nil || deps.Engine == nil {
		return handler.ErrMissingDeps
	}

	s.engine = deps.Engine

	router.Post(SubmitPath, s.Submit)
	router.Post(ReviewPath, s.Review)
	router.Get(InstancePath, s.Instance)
	router.Get(AssignedPath, s.Assigned)
	router.Get(MinePath, s.Mine)

	return nil
}

// Submit starts the approval of a draft post.
func (s *Service) Submit(c *fiber.Ctx) error {
	actorID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	postID, err := auth.ParamUint(c, "postId")
	if err != nil {
		return err
	}

	var req SubmitRequest
	if err = handler.Parse(c, &req); err != nil {
		return err
	}

	inst, err := s.engine.SubmitForApproval(c.UserContext(), actorID, postID, req.WorkflowID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(inst)
}

// Review approves or rejects an assignment.
func (s *Service) Review(c *fiber.Ctx) error {
	actorID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	assignmentID, err := auth.ParamUint(c, "assignmentId")
	if err != nil {
		return err
	}

	var req ReviewRequest
	if err = handler.Parse(c, &req); err != nil {
		return err
	}

	result, err := s.engine.ReviewAssignment(c.UserContext(), actorID, assignmentID, req.Approve, req.Feedback)
	if err != nil {
		return err
	}

	return c.JSON(ReviewResponse{Result: result})
}

// Instance returns an approval instance with its assignments.
func (s *Service) Instance(c *fiber.Ctx) error {
	actorID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	instanceID, err := auth.ParamUint(c, "instanceId")
	if err != nil {
		return err
	}

	inst, err := s.engine.GetInstance(c.UserContext(), actorID, instanceID)
	if err != nil {
		return err
	}

	return c.JSON(inst)
}

// Assigned lists assignments the caller may review, optionally filtered by ?status=.
func (s *Service) Assigned(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	rows, err := s.engine.GetAssignedRequests(c.UserContext(), actorID, teamID,
		models.AssignmentStatus(c.Query("status")))
	if err != nil {
		return err
	}

	return c.JSON(rows)
}

// Mine lists the caller's submissions, optionally filtered by ?status=.
func (s *Service) Mine(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	instances, err := s.engine.GetMyRequests(c.UserContext(), actorID, teamID,
		models.InstanceStatus(c.Query("status")))
	if err != nil {
		return err
	}

	return c.JSON(instances)
}
