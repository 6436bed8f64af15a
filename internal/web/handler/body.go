package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/auth"
)

// Parse decodes the request body into v.
func Parse(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperr.ErrValidation.With("malformed body: %v", err)
	}

	return nil
}

// ActorAndTeam returns the authenticated user and the route's team.
func ActorAndTeam(c *fiber.Ctx) (actorID, teamID uint64, err error) {
	if actorID, err = auth.UserID(c); err != nil {
		return 0, 0, err
	}

	if teamID, err = auth.TeamID(c); err != nil {
		return 0, 0, err
	}

	return actorID, teamID, nil
}
