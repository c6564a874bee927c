package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "AUTOPOSTER_CONFIG"

// Config holds application configuration loaded from an optional YAML file
// and environment variables. Environment variables win over the file.
type Config struct {
	Env       string `yaml:"env"`
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	// SchedulerTimezone is the reference timezone used for firing windows
	// and calendar-date comparisons.
	SchedulerTimezone string `yaml:"scheduler_timezone"`
	// SchedulerCron optionally registers an in-process periodic evaluation.
	// Leave empty when an external timer calls the tick endpoint.
	SchedulerCron   string `yaml:"scheduler_cron"`
	SchedulerSecret string `yaml:"scheduler_secret"`
	OperatorToken   string `yaml:"operator_token"`
	EncryptionKey   string `yaml:"encryption_key"`

	ChatworkAPIToken string `yaml:"chatwork_api_token"`
	ChatworkBaseURL  string `yaml:"chatwork_base_url"`

	GoogleSearchAPIKey   string `yaml:"google_search_api_key"`
	GoogleSearchEngineID string `yaml:"google_search_engine_id"`

	FactCheckAPIKey    string `yaml:"factcheck_api_key"`
	FactCheckBaseURL   string `yaml:"factcheck_base_url"`
	FactCheckModel     string `yaml:"factcheck_model"`
	FactCheckMaxClaims int    `yaml:"factcheck_max_claims"`

	// StubMode swaps every AI provider for canned output.
	StubMode bool `yaml:"stub_mode"`
}

// Load reads configuration from the optional YAML file and environment variables
func Load() *Config {
	cfg := defaults()

	if path := os.Getenv(configPathEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			log.Printf("WARNING: %v (continuing with defaults and environment)", err)
		}
	}

	cfg.applyEnv()

	if cfg.SchedulerSecret == "" {
		log.Println("WARNING: SCHEDULER_SECRET not set. The tick endpoint will reject every request.")
	}
	if cfg.EncryptionKey == "" {
		log.Println("WARNING: ENCRYPTION_KEY not set. Credentials will be stored in plaintext.")
	}

	return cfg
}

// Location resolves SchedulerTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		log.Printf("WARNING: invalid SCHEDULER_TIMEZONE %q, using UTC", c.SchedulerTimezone)
		return time.UTC
	}
	return loc
}

func defaults() *Config {
	return &Config{
		Env:                "development",
		Port:               "8080",
		LogLevel:           "info",
		LogFormat:          "text",
		SchedulerTimezone:  "Asia/Tokyo",
		ChatworkBaseURL:    "https://api.chatwork.com/v2",
		FactCheckBaseURL:   "https://api.perplexity.ai",
		FactCheckModel:     "sonar",
		FactCheckMaxClaims: 10,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fileCfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fileCfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.merge(fileCfg)
	return nil
}

// merge copies every non-zero field of override into c.
func (c *Config) merge(o Config) {
	setString(&c.Env, o.Env)
	setString(&c.Port, o.Port)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)
	setString(&c.DatabaseURL, o.DatabaseURL)
	setString(&c.RedisURL, o.RedisURL)
	setString(&c.SchedulerTimezone, o.SchedulerTimezone)
	setString(&c.SchedulerCron, o.SchedulerCron)
	setString(&c.SchedulerSecret, o.SchedulerSecret)
	setString(&c.OperatorToken, o.OperatorToken)
	setString(&c.EncryptionKey, o.EncryptionKey)
	setString(&c.ChatworkAPIToken, o.ChatworkAPIToken)
	setString(&c.ChatworkBaseURL, o.ChatworkBaseURL)
	setString(&c.GoogleSearchAPIKey, o.GoogleSearchAPIKey)
	setString(&c.GoogleSearchEngineID, o.GoogleSearchEngineID)
	setString(&c.FactCheckAPIKey, o.FactCheckAPIKey)
	setString(&c.FactCheckBaseURL, o.FactCheckBaseURL)
	setString(&c.FactCheckModel, o.FactCheckModel)
	if o.FactCheckMaxClaims > 0 {
		c.FactCheckMaxClaims = o.FactCheckMaxClaims
	}
	if o.StubMode {
		c.StubMode = true
	}
}

func (c *Config) applyEnv() {
	c.Env = getEnvWithDefault("ENV", c.Env)
	c.Port = getEnvWithDefault("PORT", c.Port)
	c.LogLevel = getEnvWithDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvWithDefault("LOG_FORMAT", c.LogFormat)
	c.DatabaseURL = getEnvWithDefault("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnvWithDefault("REDIS_URL", c.RedisURL)
	c.SchedulerTimezone = getEnvWithDefault("SCHEDULER_TIMEZONE", c.SchedulerTimezone)
	c.SchedulerCron = getEnvWithDefault("SCHEDULER_CRON", c.SchedulerCron)
	c.SchedulerSecret = getEnvWithDefault("SCHEDULER_SECRET", c.SchedulerSecret)
	c.OperatorToken = getEnvWithDefault("OPERATOR_TOKEN", c.OperatorToken)
	c.EncryptionKey = getEnvWithDefault("ENCRYPTION_KEY", c.EncryptionKey)
	c.ChatworkAPIToken = getEnvWithDefault("CHATWORK_API_TOKEN", c.ChatworkAPIToken)
	c.ChatworkBaseURL = getEnvWithDefault("CHATWORK_BASE_URL", c.ChatworkBaseURL)
	c.GoogleSearchAPIKey = getEnvWithDefault("GOOGLE_SEARCH_API_KEY", c.GoogleSearchAPIKey)
	c.GoogleSearchEngineID = getEnvWithDefault("GOOGLE_SEARCH_ENGINE_ID", c.GoogleSearchEngineID)
	c.FactCheckAPIKey = getEnvWithDefault("FACTCHECK_API_KEY", c.FactCheckAPIKey)
	c.FactCheckBaseURL = getEnvWithDefault("FACTCHECK_BASE_URL", c.FactCheckBaseURL)
	c.FactCheckModel = getEnvWithDefault("FACTCHECK_MODEL", c.FactCheckModel)

	if v := os.Getenv("FACTCHECK_MAX_CLAIMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.FactCheckMaxClaims = n
		} else {
			log.Printf("WARNING: ignoring invalid FACTCHECK_MAX_CLAIMS %q", v)
		}
	}
	if v := os.Getenv("STUB_MODE"); v != "" {
		c.StubMode = parseBool(v)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
