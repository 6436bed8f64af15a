// Package daemon wires the database, the services, the background jobs and the web server.
package daemon

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/approval"
	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/config"
	"github.com/postdeck/postdeck/internal/db/database"
	"github.com/postdeck/postdeck/internal/logger/adapter/stdlogger"
	"github.com/postdeck/postdeck/internal/notify"
	"github.com/postdeck/postdeck/internal/web"
)

// ErrConfigNil is returned by New without a configuration.
var ErrConfigNil = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
	jobs       *cron.Cron
	dispatcher *notify.Dispatcher
}

// Start runs the background jobs and the web service until a termination signal arrives.
func (d *Daemon) Start() error {
	d.jobs.Start()

	go func() {
		if err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port)); err != nil {
			log.Error().Err(err).Msg("web service stopped")
		}
	}()

	d.webService.WaitShutdown()

	return d.Stop()
}

// Stop halts the background jobs and releases the publisher.
func (d *Daemon) Stop() error {
	d.jobs.Stop()

	if d.dispatcher != nil {
		return d.dispatcher.Close()
	}

	return nil
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	return NewWithDB(cfg, db)
}

// NewWithDB creates a Daemon on an already opened and migrated database.
func NewWithDB(cfg *config.Config, db *gorm.DB) (*Daemon, error) {
	authService := auth.NewService(db, auth.NewRoleDefaults(db, cfg.Cache.RoleDefaultsMaxBytes))

	if err := seed(context.Background(), db, authService); err != nil {
		return nil, err
	}

	engine := approval.NewEngine(db, authService)
	jobs := cron.New()
	jobs.ErrorLog = stdlogger.NewStd(zerolog.ErrorLevel, "cron")

	if err := jobs.AddJob(cfg.Approval.StaleCheckSpec, approval.NewStaleReporter(engine, cfg.Approval.StaleAfter)); err != nil {
		return nil, errors.Wrapf(err, "invalid stale check schedule %q", cfg.Approval.StaleCheckSpec)
	}

	d := &Daemon{
		cfg:        cfg,
		db:         db,
		webService: web.New(cfg, authService, engine),
		jobs:       jobs,
	}

	if cfg.Notify.Enabled {
		publisher, err := notify.NewPublisher(cfg.Notify)
		if err != nil {
			return nil, err
		}

		d.dispatcher = notify.NewDispatcher(db, publisher, cfg.Notify.BatchSize, cfg.Notify.MaxAttempts)

		if err = jobs.AddJob(cfg.Notify.DispatchSpec, d.dispatcher); err != nil {
			return nil, errors.Wrapf(err, "invalid dispatch schedule %q", cfg.Notify.DispatchSpec)
		}
	}

	log.Info().Bool("notify", cfg.Notify.Enabled).Str("engine", cfg.DB.GormEngine).Msg("daemon initialized")

	return d, nil
}
