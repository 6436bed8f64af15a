// Package fiber provides the zerolog access log middleware for the http api.
package fiber

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/postdeck/postdeck/internal/logger"
)

// Config of the access log middleware.
type Config struct {
	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool

	Config logger.Log

	// CacheControlError is set on responses whose error the app error handler could not render.
	CacheControlError string

	// CheckAliveURI is not logged when Config.DisableCheckAlive is set.
	CheckAliveURI string

	// UserLocalsKey names the fiber.Locals entry holding the authenticated user id.
	UserLocalsKey string
}

const defaultCacheControlError = "max-age=0"

// New returns a middleware writing one json line per request to the access log file
// and, when enabled, to stdout. Errors returned by the chain are rendered through
// the app error handler here so the logged status is the one the client sees.
func New(cfg Config) fiber.Handler {
	if cfg.CacheControlError == "" {
		cfg.CacheControlError = defaultCacheControlError
	}

	access := zerolog.New(zerolog.MultiLevelWriter(writers(cfg.Config)...)).
		With().Timestamp().Logger().
		Level(zerolog.NoLevel)

	return func(ctx *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(ctx) {
			return ctx.Next()
		}

		start := time.Now()

		chainErr := ctx.Next()
		if chainErr != nil {
			if err := ctx.App().ErrorHandler(ctx, chainErr); err != nil {
				_ = ctx.SendStatus(fiber.StatusInternalServerError) //nolint:errcheck
				ctx.Response().Header.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		elapsed := time.Since(start).Seconds()
		ctx.Response().Header.Set("X-Performance", strconv.FormatFloat(elapsed, 'f', 6, 64))

		if cfg.Config.DisableCheckAlive && string(ctx.Request().RequestURI()) == cfg.CheckAliveURI {
			return nil
		}

		// ctx.Path is the raw path; fasthttp would collapse "//".
		uri := ctx.Path()
		if qs := ctx.Request().URI().QueryString(); len(qs) > 0 {
			uri += "?" + string(qs)
		}

		ev := access.Log().
			Str("IP", ctx.IP()).
			Int("status", ctx.Response().StatusCode()).
			Float64("X-Performance", elapsed).
			Str("URI", uri).
			Str("method", ctx.Method()).
			Bytes("host", ctx.Request().Host()).
			Str(fiber.HeaderXForwardedFor, ctx.Get(fiber.HeaderXForwardedFor)).
			Str(fiber.HeaderUserAgent, ctx.Get(fiber.HeaderUserAgent))

		if cfg.UserLocalsKey != "" {
			if id, ok := ctx.Locals(cfg.UserLocalsKey).(uint64); ok {
				ev.Uint64("user_id", id)
			}
		}

		ev.Err(chainErr).Send()

		return nil
	}
}

func writers(cfg logger.Log) []io.Writer {
	var out []io.Writer

	if cfg.File.Enabled {
		if w := logger.RollingFile(cfg.File.Path, cfg.File.Access); w != nil {
			out = append(out, w)
		}
	}

	if cfg.Console.Enabled && cfg.EnableAccessLogToConsole {
		if cfg.Console.UseConsoleWriter {
			out = append(out, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{zerolog.LevelFieldName},
			})
		} else {
			out = append(out, os.Stdout)
		}
	}

	return out
}
