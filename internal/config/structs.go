package config

import (
	"time"

	"github.com/postdeck/postdeck/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Approval  Approval
	Notify    Notify
	Cache     Cache
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	CheckAliveURI  string // liveness probe path, excluded from access logs if Log.DisableCheckAlive
	MetricsURI     string // prometheus scrape path, empty disables it
}

// Approval holds the approval workflow engine settings.
type Approval struct {
	// StaleAfter is the age after which a pending assignment is reported as stuck.
	StaleAfter time.Duration
	// StaleCheckSpec is the cron spec of the stale assignment report.
	StaleCheckSpec string
	// FallbackRole is the built-in role members get when their custom role is deleted.
	FallbackRole string
}

// Notify holds the outbox dispatch settings.
type Notify struct {
	Enabled      bool
	Publisher    string // log or kafka
	DispatchSpec string // cron spec of the outbox dispatcher
	BatchSize    int
	MaxAttempts  int
	Kafka        Kafka
}

// Kafka holds the kafka publisher settings.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Cache holds in-process cache settings.
type Cache struct {
	// RoleDefaultsMaxBytes bounds the role default permission cache.
	RoleDefaultsMaxBytes int
}
