package main

import (
	"fmt"
	"partsfinder-backend/internal/agent"
	"partsfinder-backend/internal/components/chrono"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/server"
	"partsfinder-backend/internal/store"
	"partsfinder-backend/pkg/configutil"
	"time"
)

const defaultPort = 3001

type EbayConfig struct {
	AppId  string `json:"app_id"`
	CertId string `json:"cert_id"`
	// BaseURL defaults to the sandbox or production api depending on AppId.
	BaseURL           string `json:"base_url"`
	Limit             int    `json:"limit"`
	VerificationToken string `json:"verification_token"`
	DeletionEndpoint  string `json:"deletion_endpoint"`
}

type CraigslistConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

func (c CraigslistConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type RelevanceConfig struct {
	APIKey         string `json:"api_key"`
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (c RelevanceConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c RelevanceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Config struct {
	Port       int              `json:"port"`
	Ebay       EbayConfig       `json:"ebay"`
	Craigslist CraigslistConfig `json:"craigslist"`
	Relevance  RelevanceConfig  `json:"relevance"`
	Agent      agent.Config     `json:"agent"`
	Database   store.Config     `json:"database"`
	// SearchLog is the path of the search log file.
	SearchLog string                `json:"search_log"`
	Schedule  server.ScheduleConfig `json:"schedule"`
	Telemetry telemetry.Config      `json:"telemetry"`
	// PersistQueue bounds the number of result batches waiting to be stored.
	PersistQueue int `json:"persist_queue"`
}

func (c *Config) applyEnv(env *configutil.Env) error {
	env.String(&c.Ebay.AppId, "EBAY_APP_ID")
	env.String(&c.Ebay.CertId, "EBAY_CERT_ID")
	env.String(&c.Ebay.VerificationToken, "EBAY_VERIFICATION_TOKEN")
	env.String(&c.Ebay.DeletionEndpoint, "EBAY_DELETION_ENDPOINT")

	env.String(&c.Agent.BaseURL, "AGENT_BASE_URL")
	env.String(&c.Agent.Token, "AGENT_TOKEN")

	env.String(&c.Relevance.APIKey, "OPENAI_API_KEY")
	env.String(&c.Relevance.BaseURL, "OPENAI_BASE_URL")
	env.String(&c.Relevance.Model, "RELEVANCE_MODEL")

	var driver string
	env.String(&driver, "DATABASE_DRIVER")
	if driver != "" {
		c.Database.Driver = store.Driver(driver)
	}
	env.String(&c.Database.URL, "DATABASE_URL")
	env.String(&c.Database.AuthToken, "DATABASE_AUTH_TOKEN")
	env.String(&c.Database.File, "DATABASE_FILE")

	env.String(&c.SearchLog, "SEARCH_LOG")
	env.Int(&c.Port, "PORT")

	return env.Err()
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Database.Driver == "" {
		c.Database.Driver = store.DriverSqlite
	}
	if c.Database.Driver == store.DriverSqlite && c.Database.File == "" {
		c.Database.File = "data/partsfinder.db"
	}
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case store.DriverSqlite, store.DriverLibsql, store.DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver '%s'", c.Database.Driver)
	}
	if c.Database.Driver != store.DriverSqlite && c.Database.URL == "" {
		return fmt.Errorf("database driver '%s' requires a url", c.Database.Driver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Schedule.Spec != "" {
		err := chrono.ValidateSpec(c.Schedule.Spec)
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	}
	return nil
}

// LoadConfig reads the config file and its local override, then applies environment
// overrides and defaults.
func LoadConfig(name string, env *configutil.Env) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](name)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	err = cfg.applyEnv(env)
	if err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}
	cfg.applyDefaults()
	err = cfg.validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
