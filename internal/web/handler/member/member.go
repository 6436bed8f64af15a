// Package member provides handlers for team memberships and per-member permission overrides.
package member

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/models"
	"github.com/postdeck/postdeck/internal/web/handler"
)

const (
	// Path is the base path for member management.
	Path = handler.TeamPath + "/members"

	// ParamMembershipID names the membership route parameter.
	ParamMembershipID = "membershipId"

	paramPermission = "permission"
)

// BasisRequest selects a built-in role or a custom role. Exactly one must be set.
type BasisRequest struct {
	Role         string  `json:"role"`
	CustomRoleID *uint64 `json:"customRoleId"`
}

// StatusRequest carries a new membership status.
type StatusRequest struct {
	Status models.MembershipStatus `json:"status"`
}

// Service serves membership routes.
type Service struct {
	authService *auth.Service
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps handler.Deps) error {
	if router == nil || deps.Auth == nil {
		return handler.ErrMissingDeps
	}

	s.authService = deps.Auth

	member := Path + "/:" + ParamMembershipID

	router.Get(Path, s.List)
	router.Get(handler.TeamPath+"/permissions/me", auth.RequireMember(s.authService), s.MyPermissions)
	router.Put(member+"/basis", s.SetBasis)
	router.Put(member+"/status", s.SetStatus)
	router.Get(member+"/overrides",
		auth.RequireAnyPermission(s.authService, auth.PermPermissionsManage, auth.PermTeamMembersManage),
		s.ListOverrides)
	router.Post(member+"/grants/:"+paramPermission, s.Grant)
	router.Post(member+"/denies/:"+paramPermission, s.Deny)
	router.Delete(member+"/overrides/:"+paramPermission, s.Revoke)

	return nil
}

// List returns the team's members.
func (s *Service) List(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	members, err := s.authService.ListMembers(c.UserContext(), actorID, teamID)
	if err != nil {
		return err
	}

	return c.JSON(members)
}

// MyPermissions returns the caller's effective permissions in the team.
func (s *Service) MyPermissions(c *fiber.Ctx) error {
	actorID, teamID, err := handler.ActorAndTeam(c)
	if err != nil {
		return err
	}

	set, err := s.authService.ResolveEffectivePermissions(c.UserContext(), actorID, teamID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"permissions": set.Codes()})
}

// SetBasis changes a member's role or custom role.
func (s *Service) SetBasis(c *fiber.Ctx) error {
	actorID, teamID, membershipID, err := s.target(c)
	if err != nil {
		return err
	}

	var req BasisRequest
	if err = handler.Parse(c, &req); err != nil {
		return err
	}

	basis, err := req.Basis()
	if err != nil {
		return err
	}

	m, err := s.authService.SetMemberBasis(c.UserContext(), actorID, teamID, membershipID, basis)
	if err != nil {
		return err
	}

	return c.JSON(m)
}

// SetStatus activates or suspends a member.
func (s *Service) SetStatus(c *fiber.Ctx) error {
	actorID, teamID, membershipID, err := s.target(c)
	if err != nil {
		return err
	}

	var req StatusRequest
	if err = handler.Parse(c, &req); err != nil {
		return err
	}

	if err = s.authService.SetMemberStatus(c.UserContext(), actorID, teamID, membershipID, req.Status); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListOverrides returns a member's grants and denies.
func (s *Service) ListOverrides(c *fiber.Ctx) error {
	actorID, teamID, membershipID, err := s.target(c)
	if err != nil {
		return err
	}

	overrides, err := s.authService.ListOverrides(c.UserContext(), actorID, teamID, membershipID)
	if err != nil {
		return err
	}

	return c.JSON(overrides)
}

// Grant adds a permission to a member.
func (s *Service) Grant(c *fiber.Ctx) error {
	return s.override(c, s.authService.GrantPermissionToMember)
}

// Deny removes a permission from a member.
func (s *Service) Deny(c *fiber.Ctx) error {
	return s.override(c, s.authService.DenyPermissionToMember)
}

// Revoke drops a member's grant or deny.
func (s *Service) Revoke(c *fiber.Ctx) error {
	return s.override(c, s.authService.RevokePermissionOverride)
}

type overrideFunc func(ctx context.Context, actorID, teamID, membershipID uint64, code string) (*auth.Override, error)

func (s *Service) override(c *fiber.Ctx, fn overrideFunc) error {
	actorID, teamID, membershipID, err := s.target(c)
	if err != nil {
		return err
	}

	o, err := fn(c.UserContext(), actorID, teamID, membershipID, c.Params(paramPermission))
	if err != nil {
		return err
	}

	return c.JSON(o)
}

func (s *Service) target(c *fiber.Ctx) (actorID, teamID, membershipID uint64, err error) {
	if actorID, teamID, err = handler.ActorAndTeam(c); err != nil {
		return 0, 0, 0, err
	}

	if membershipID, err = auth.ParamUint(c, ParamMembershipID); err != nil {
		return 0, 0, 0, err
	}

	return actorID, teamID, membershipID, nil
}

// Basis converts the request into an authorization basis.
func (r BasisRequest) Basis() (models.AuthorizationBasis, error) {
	switch {
	case r.Role != "" && r.CustomRoleID == nil:
		role, ok := models.ParseRole(r.Role)
		if !ok {
			return nil, auth.ErrInvalidRole.With("%q", r.Role)
		}

		return models.BuiltinRole{Role: role}, nil
	case r.Role == "" && r.CustomRoleID != nil:
		return models.CustomRoleBasis{ID: *r.CustomRoleID}, nil
	default:
		return nil, apperr.ErrValidation.With("exactly one of role and customRoleId is required")
	}
}
