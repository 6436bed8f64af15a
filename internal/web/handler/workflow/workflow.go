// Package workflow provides handlers for approval workflow definitions.
package workflow

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postdeck/postdeck/internal/approval"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/web/handler"
)

const (
	// Path is the base path for workflows.
	Path = handler.TeamPath + "/workflows"

	paramWorkflowID = "workflowId"
)

// Service serves workflow routes.
type Service struct {
	engine *approval.Engine
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps handler.Deps) error {
	if router == nil || deps.Engine == nil || deps.Auth == nil {
		return handler.ErrMissingDeps
	}

	s.engine = deps.Engine

	one := Path + "/:" + paramWorkflowID
	manage := auth.RequirePermission(deps.Auth, auth.PermWorkflowManage)

	router.Get(Path, s.List)
	router.Post(Path, manage, s.Create)
	router.Get(one, s.Get)
	router.Put(one, manage, s.Update)
	router.Delete(one, manage, s.Delete)

	return nil
}

// List returns the team's workflows.
func (s *Service) List(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	workflows, err := s.engine.ListWorkflows(c.UserContext(), actorID, teamID)
	if err != nil {
		return err
	}

	return c.JSON(workflows)
}

// Create adds a workflow.
func (s *Service) Create(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	var in approval.WorkflowInput
	if err = handler.Parse(c, &in); err != nil {
		return err
	}

	wf, err := s.engine.CreateWorkflow(c.UserContext(), actorID, teamID, in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(wf)
}

// Get returns one workflow.
func (s *Service) Get(c *fiber.Ctx) error {
	actorID, teamID, workflowID, err := target(c)
	if err != nil {
		return err
	}

	wf, err := s.engine.GetWorkflow(c.UserContext(), actorID, teamID, workflowID)
	if err != nil {
		return err
	}

	return c.JSON(wf)
}

// Update changes a workflow.
func (s *Service) Update(c *fiber.Ctx) error {
	actorID, teamID, workflowID, err := target(c)
	if err != nil {
		return err
	}

	var in approval.WorkflowInput
	if err = handler.Parse(c, &in); err != nil {
		return err
	}

	wf, err := s.engine.UpdateWorkflow(c.UserContext(), actorID, teamID, workflowID, in)
	if err != nil {
		return err
	}

	return c.JSON(wf)
}

// Delete removes a workflow.
func (s *Service) Delete(c *fiber.Ctx) error {
	actorID, teamID, workflowID, err := target(c)
	if err != nil {
		return err
	}

	if err = s.engine.DeleteWorkflow(c.UserContext(), actorID, teamID, workflowID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func target(c *fiber.Ctx) (actorID, teamID, workflowID uint64, err error) {
	if actorID, teamID, err = handler.ActorAndTeam(c); err != nil {
		return 0, 0, 0, err
	}

	if workflowID, err = auth.ParamUint(c, paramWorkflowID); err != nil {
		return 0, 0, 0, err
	}

	return actorID, teamID, workflowID, nil
}
