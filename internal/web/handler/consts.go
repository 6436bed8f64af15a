package handler

import (
	"errors"

	"github.com/postdeck/postdeck/internal/auth"
)

const (
	// TeamPath is the prefix of team scoped routes.
	TeamPath = "/teams/:" + auth.ParamTeamID
)

// ErrMissingDeps is returned by Init when a required dependency is nil.
var ErrMissingDeps = errors.New("handler dependencies are incomplete")
