// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvConfigJSON is the environment variable holding a JSON document merged over the file config.
const EnvConfigJSON = "POSTDECK_CONFIG_JSON"

const (
	defaultShutDownTime   = 5
	defaultStaleAfter     = 72 * time.Hour
	defaultStaleCheckSpec = "@every 15m"
	defaultFallbackRole   = "VIEWER"
	defaultDispatchSpec   = "@every 10s"
	defaultBatchSize      = 50
	defaultMaxAttempts    = 10
	defaultCheckAliveURI  = "/checkalive"
	defaultCacheMaxBytes  = 32 << 20
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(path + "main.toml")
	v.SetConfigType("toml")

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the service can not start without
// and fills in defaults for the optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.CheckAliveURI == "" {
		c.Webserver.CheckAliveURI = defaultCheckAliveURI
	}

	c.DB.GormEngine = strings.ToLower(c.DB.GormEngine)
	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineMySQL
	case EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	if c.Approval.StaleAfter <= 0 {
		c.Approval.StaleAfter = defaultStaleAfter
	}

	if c.Approval.StaleCheckSpec == "" {
		c.Approval.StaleCheckSpec = defaultStaleCheckSpec
	}

	if c.Approval.FallbackRole == "" {
		c.Approval.FallbackRole = defaultFallbackRole
	}

	if c.Cache.RoleDefaultsMaxBytes <= 0 {
		c.Cache.RoleDefaultsMaxBytes = defaultCacheMaxBytes
	}

	return validateNotify(&c.Notify, invalidErrMessage)
}

func validateNotify(n *Notify, invalidErrMessage string) error {
	if n.DispatchSpec == "" {
		n.DispatchSpec = defaultDispatchSpec
	}

	if n.BatchSize <= 0 {
		n.BatchSize = defaultBatchSize
	}

	if n.MaxAttempts <= 0 {
		n.MaxAttempts = defaultMaxAttempts
	}

	switch n.Publisher {
	case "", "log":
		n.Publisher = "log"
	case "kafka":
		if len(n.Kafka.Brokers) == 0 {
			return errors.Wrap(ErrKafkaBrokersEmpty, invalidErrMessage)
		}
	default:
		return errors.Wrap(ErrUnknownPublisher, invalidErrMessage)
	}

	return nil
}
