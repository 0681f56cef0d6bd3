package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	OpenData  OpenDataConfig  `yaml:"open_data"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Email     EmailConfig     `yaml:"email"`
	Job       JobConfig       `yaml:"job"`
	Search    SearchConfig    `yaml:"search"`
	Slack     SlackConfig     `yaml:"slack"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           string   `yaml:"port"`
	Mode           string   `yaml:"mode"` // gin mode: debug, release, test
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"` // mysql, postgres, sqlite
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	LogLevel string         `yaml:"log_level"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SQLiteConfig contains the database file path
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// OpenDataConfig contains Socrata portal settings
type OpenDataConfig struct {
	BaseURL                string `yaml:"base_url"`
	AppToken               string `yaml:"app_token"`
	ViolationsDataset      string `yaml:"violations_dataset"`
	ServiceRequestsDataset string `yaml:"service_requests_dataset"`
	PermitsDataset         string `yaml:"permits_dataset"`
	PageSize               int    `yaml:"page_size"`
	TimeoutSeconds         int    `yaml:"timeout_seconds"`
}

// RateLimitConfig contains outbound rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// EmailConfig contains email provider settings
type EmailConfig struct {
	APIKey    string `yaml:"api_key"`
	From      string `yaml:"from"`
	BatchSize int    `yaml:"batch_size"`
	SiteURL   string `yaml:"site_url"`
}

// JobConfig contains batch job settings
type JobConfig struct {
	CronSecret       string `yaml:"cron_secret"`
	SingleFlight     bool   `yaml:"single_flight"`
	ScheduleEnabled  bool   `yaml:"schedule_enabled"`
	WatchSchedule    string `yaml:"watch_schedule"`
	LandlordSchedule string `yaml:"landlord_schedule"`
	Timezone         string `yaml:"timezone"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// SlackConfig contains the run summary destination
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Mode:           "release",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			MySQL: MySQLConfig{
				Host: "localhost",
				Port: 3306,
			},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
			SQLite: SQLiteConfig{
				Path: "rental-watch.db",
			},
			LogLevel: "warn",
		},
		OpenData: OpenDataConfig{
			BaseURL:                "https://data.cityofchicago.org",
			ViolationsDataset:      "22u3-xenr",
			ServiceRequestsDataset: "v6vf-nfxy",
			PermitsDataset:         "ydr8-5enu",
			PageSize:               200,
			TimeoutSeconds:         30,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			RequestsPerHour:   1000,
		},
		Email: EmailConfig{
			BatchSize: 50,
			SiteURL:   "http://localhost:3000",
		},
		Job: JobConfig{
			ScheduleEnabled:  false,
			WatchSchedule:    "0 7 * * *",
			LandlordSchedule: "30 7 * * *",
			Timezone:         "America/Chicago",
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{
				Index: "buildings",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides file values with environment variables
func (c *Config) ApplyEnv() error {
	envOverride(&c.Server.Port, "PORT")
	envOverride(&c.Server.Mode, "GIN_MODE")

	envOverride(&c.Database.Type, "DB_TYPE")
	envOverride(&c.Database.SQLite.Path, "SQLITE_PATH")
	switch c.Database.Type {
	case "mysql":
		envOverride(&c.Database.MySQL.Host, "DB_HOST")
		envOverride(&c.Database.MySQL.User, "DB_USER")
		envOverride(&c.Database.MySQL.Password, "DB_PASSWORD")
		envOverride(&c.Database.MySQL.Database, "DB_NAME")
		if err := envOverrideInt(&c.Database.MySQL.Port, "DB_PORT"); err != nil {
			return err
		}
	case "postgres":
		envOverride(&c.Database.Postgres.Host, "DB_HOST")
		envOverride(&c.Database.Postgres.User, "DB_USER")
		envOverride(&c.Database.Postgres.Password, "DB_PASSWORD")
		envOverride(&c.Database.Postgres.Database, "DB_NAME")
		envOverride(&c.Database.Postgres.SSLMode, "DB_SSLMODE")
		if err := envOverrideInt(&c.Database.Postgres.Port, "DB_PORT"); err != nil {
			return err
		}
	}

	envOverride(&c.OpenData.BaseURL, "OPEN_DATA_BASE_URL")
	envOverride(&c.OpenData.AppToken, "SOCRATA_APP_TOKEN")

	envOverride(&c.Email.APIKey, "RESEND_API_KEY")
	envOverride(&c.Email.From, "EMAIL_FROM")
	envOverride(&c.Email.SiteURL, "SITE_URL")

	envOverride(&c.Job.CronSecret, "CRON_SECRET")
	envOverrideBool(&c.Job.SingleFlight, "JOB_SINGLE_FLIGHT")
	envOverrideBool(&c.Job.ScheduleEnabled, "JOB_SCHEDULE_ENABLED")

	envOverride(&c.Search.Meilisearch.Host, "MEILISEARCH_HOST")
	envOverride(&c.Search.Meilisearch.APIKey, "MEILISEARCH_KEY")

	envOverride(&c.Slack.BotToken, "SLACK_BOT_TOKEN")
	envOverride(&c.Slack.Channel, "SLACK_CHANNEL")

	envOverride(&c.Logging.Level, "LOG_LEVEL")
	envOverride(&c.Logging.Format, "LOG_FORMAT")
	return nil
}

// Validate rejects configurations the process cannot start with
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("database.type must be mysql, postgres or sqlite, got %q", c.Database.Type)
	}
	if c.Job.SingleFlight && c.Database.Type != "postgres" {
		return fmt.Errorf("job.single_flight requires database.type postgres")
	}
	if c.Email.BatchSize < 1 || c.Email.BatchSize > 100 {
		return fmt.Errorf("email.batch_size must be between 1 and 100, got %d", c.Email.BatchSize)
	}
	if c.OpenData.PageSize < 1 || c.OpenData.PageSize > 200 {
		return fmt.Errorf("open_data.page_size must be between 1 and 200, got %d", c.OpenData.PageSize)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// MissingCredentialsError lists the credentials a job needs but does not have
type MissingCredentialsError struct {
	Missing []string
}

func (e *MissingCredentialsError) Error() string {
	return "missing credentials: " + strings.Join(e.Missing, ", ")
}

// JobCredentials returns *MissingCredentialsError when the email provider or
// datastore is not configured. databaseReady reports whether a connection
// was established at startup.
func (c *Config) JobCredentials(databaseReady bool) error {
	var missing []string
	if c.Email.APIKey == "" {
		missing = append(missing, "email.api_key")
	}
	if c.Email.From == "" {
		missing = append(missing, "email.from")
	}
	if !databaseReady {
		missing = append(missing, "database")
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Missing: missing}
	}
	return nil
}

// SearchEnabled reports whether a Meilisearch host is configured
func (c *Config) SearchEnabled() bool {
	return c.Search.Meilisearch.Host != ""
}

// SlackEnabled reports whether run summaries should be posted
func (c *Config) SlackEnabled() bool {
	return c.Slack.BotToken != "" && c.Slack.Channel != ""
}

// Location returns the scheduler time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Job.Timezone == "" || strings.EqualFold(c.Job.Timezone, "Local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Job.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid job.timezone %q: %w", c.Job.Timezone, err)
	}
	return loc, nil
}

// GetTimeout returns the open-data request timeout as a duration
func (c *OpenDataConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}
