package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postdeck/postdeck/internal/approval"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/config"
)

// Deps are the services a handler may use.
type Deps struct {
	Cfg    *config.Config
	Auth   *auth.Service
	Engine *approval.Engine
}

// Service is the interface for a web handler service.
type Service interface {
	Init(router fiber.Router, deps Deps) error
}
