// Package role provides handlers for custom roles and built-in role defaults.
package role

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/models"
	"github.com/postdeck/postdeck/internal/web/handler"
)

const (
	// Path is the base path for custom roles.
	Path = handler.TeamPath + "/roles"

	// DefaultsPath lists the default permissions of a built-in role.
	DefaultsPath = "/roles/:role/permissions"

	paramRoleID = "roleId"
)

// Service serves role routes.
type Service struct {
	authService  *auth.Service
	fallbackRole models.Role
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps handler.Deps) error {
	if router == nil || deps.Auth == nil || deps.Cfg == nil {
		return handler.ErrMissingDeps
	}

	s.authService = deps.Auth
	s.fallbackRole = models.Role(deps.Cfg.Approval.FallbackRole)

	router.Get(DefaultsPath, s.Defaults)
	router.Get(Path, s.List)
	router.Post(Path, s.Create)
	router.Put(Path+"/:"+paramRoleID, s.Update)
	router.Delete(Path+"/:"+paramRoleID, s.Delete)

	return nil
}

// Defaults returns the default permission codes of a built-in role.
func (s *Service) Defaults(c *fiber.Ctx) error {
	if _, err := auth.UserID(c); err != nil {
		return err
	}

	role := models.Role(c.Params("role"))

	codes, err := s.authService.RoleDefaultPermissions(c.UserContext(), role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"role": role, "permissions": codes})
}

// List returns the team's custom roles.
func (s *Service) List(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	roles, err := s.authService.ListCustomRoles(c.UserContext(), actorID, teamID)
	if err != nil {
		return err
	}

	return c.JSON(roles)
}

// Create adds a custom role.
func (s *Service) Create(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	var in auth.CustomRoleInput
	if err = handler.Parse(c, &in); err != nil {
		return err
	}

	role, err := s.authService.CreateCustomRole(c.UserContext(), actorID, teamID, in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

// Update changes a custom role.
func (s *Service) Update(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	roleID, err := auth.ParamUint(c, paramRoleID)
	if err != nil {
		return err
	}

	var in auth.CustomRoleInput
	if err = handler.Parse(c, &in); err != nil {
		return err
	}

	role, err := s.authService.UpdateCustomRole(c.UserContext(), actorID, teamID, roleID, in)
	if err != nil {
		return err
	}

	return c.JSON(role)
}

// Delete removes a custom role. Its members move to the fallback query parameter,
// or to the configured fallback role when it is absent.
func (s *Service) Delete(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	roleID, err := auth.ParamUint(c, paramRoleID)
	if err != nil {
		return err
	}

	fallback := models.Role(c.Query("fallback", string(s.fallbackRole)))

	reassigned, err := s.authService.DeleteCustomRole(c.UserContext(), actorID, teamID, roleID, fallback)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"reassigned": reassigned, "fallback": fallback})
}
