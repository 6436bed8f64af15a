package auth

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/postdeck/postdeck/internal/apperr"
)

const (
	// LocalsUserID is the fiber.Locals key holding the authenticated user's ID.
	LocalsUserID = "user_id"

	// ParamTeamID is the route parameter naming the team of a request.
	ParamTeamID = "teamId"
)

// TokenMiddleware authenticates the bearer token of the request and stores the user ID in the locals.
func TokenMiddleware(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)

		plaintext, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || plaintext == "" {
			return apperr.ErrUnauthorized
		}

		user, err := authService.VerifyToken(c.UserContext(), plaintext)
		if err != nil {
			return err
		}

		c.Locals(LocalsUserID, user.ID)

		return c.Next()
	}
}

// UserID returns the authenticated user's ID.
func UserID(c *fiber.Ctx) (uint64, error) {
	id, ok := c.Locals(LocalsUserID).(uint64)
	if !ok || id == 0 {
		return 0, apperr.ErrUnauthorized
	}

	return id, nil
}

// TeamID parses the team route parameter.
func TeamID(c *fiber.Ctx) (uint64, error) {
	return ParamUint(c, ParamTeamID)
}

// ParamUint parses a numeric route parameter. Malformed values are reported as not found.
func ParamUint(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.ErrNotFound.With("invalid %s", name)
	}

	return id, nil
}

// RequirePermission creates Fiber middleware that requires a specific permission in the route's team.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return err
		}

		teamID, err := TeamID(c)
		if err != nil {
			return err
		}

		if err = authService.Authorize(c.UserContext(), userID, teamID, permission); err != nil {
			return err
		}

		return c.Next()
	}
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(authService *Service, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return err
		}

		teamID, err := TeamID(c)
		if err != nil {
			return err
		}

		ok, err := authService.HasAnyPermission(c.UserContext(), userID, teamID, permissions)
		if err != nil {
			return err
		}

		if !ok {
			return ErrPermissionMissing.With("any of %s", strings.Join(permissions, ", "))
		}

		return c.Next()
	}
}

// RequireMember creates Fiber middleware that only lets active members of the route's team through.
func RequireMember(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return err
		}

		teamID, err := TeamID(c)
		if err != nil {
			return err
		}

		if _, err = authService.ActiveMembership(c.UserContext(), userID, teamID); err != nil {
			return err
		}

		return c.Next()
	}
}
