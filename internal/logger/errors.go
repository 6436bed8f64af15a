package logger

import "github.com/pkg/errors"

var (
	// ErrAppNameIsEmpty is returned when [log] app_name is missing.
	ErrAppNameIsEmpty = errors.New("log app name must be set")

	// ErrServiceNameIsEmpty is returned when [log] service_name is missing.
	ErrServiceNameIsEmpty = errors.New("log service name must be set")
)
