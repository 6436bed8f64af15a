package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/postdeck/postdeck/internal/apperr"
	"github.com/postdeck/postdeck/internal/auth"
)

// ErrorBody is the JSON envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure by kind and stable code.
type ErrorDetail struct {
	Kind    apperr.Kind `json:"kind"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// ErrorHandler renders errors returned by handlers. Internal errors are logged and masked.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorBody{Error: ErrorDetail{
			Kind:    kindOfStatus(fe.Code),
			Code:    string(kindOfStatus(fe.Code)),
			Message: fe.Message,
		}})
	}

	detail := ErrorDetail{Kind: apperr.KindOf(err), Code: apperr.CodeOf(err), Message: err.Error()}

	if detail.Kind == apperr.KindInternal {
		userID, _ := c.Locals(auth.LocalsUserID).(uint64)
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Uint64("user_id", userID).
			Msg("request failed")

		detail.Code = apperr.ErrInternal.Code
		detail.Message = apperr.ErrInternal.Message
	}

	return c.Status(apperr.HTTPStatus(detail.Kind)).JSON(ErrorBody{Error: detail})
}

func kindOfStatus(status int) apperr.Kind {
	switch status {
	case fiber.StatusUnauthorized:
		return apperr.KindUnauthorized
	case fiber.StatusForbidden:
		return apperr.KindForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return apperr.KindNotFound
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		return apperr.KindValidation
	case fiber.StatusConflict:
		return apperr.KindConflict
	default:
		return apperr.KindInternal
	}
}
