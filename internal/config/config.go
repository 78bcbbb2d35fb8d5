package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	JWT          JWTConfig          `yaml:"jwt"`
	Log          LogConfig          `yaml:"log"`
	Lending      LendingConfig      `yaml:"lending"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Notification NotificationConfig `yaml:"notification"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Tracing      TracingConfig      `yaml:"tracing"`
}

// ServerConfig contains gRPC and HTTP listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	HTTPPort int    `yaml:"http_port"` // defaults to port+1
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Type            string `yaml:"type"` // "postgres" or "memory"
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	SSLMode         string `yaml:"ssl_mode"`
	AutoMigrate     bool   `yaml:"auto_migrate"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// LendingConfig contains the defaults the request lifecycle applies
type LendingConfig struct {
	DefaultHandlerEmployeeID int32 `yaml:"default_handler_employee_id"` // 0 leaves new requests unassigned
	DefaultLocationID        int32 `yaml:"default_location_id"`
	LockRetryAttempts        int   `yaml:"lock_retry_attempts"`
	LockRetryInitialMillis   int   `yaml:"lock_retry_initial_ms"`
	LockRetryMaxMillis       int   `yaml:"lock_retry_max_ms"`
	OperationTimeoutSeconds  int   `yaml:"operation_timeout_seconds"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	MarkOverdueRequests    string `yaml:"mark_overdue_requests"`
	SendOverdueReminders   string `yaml:"send_overdue_reminders"`
	RelayTransactionEvents string `yaml:"relay_transaction_events"`
}

// NotificationConfig contains SendGrid settings for the overdue digest
type NotificationConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	OpsEmail       string `yaml:"ops_email"`
}

// KafkaConfig contains the transaction event relay settings
type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	BatchSize int      `yaml:"batch_size"`
}

// TracingConfig contains OpenTelemetry exporter settings
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // OTLP/HTTP collector, host:port
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_TYPE"); val != "" {
		c.Database.Type = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Lending
	if val := os.Getenv("LENDING_DEFAULT_HANDLER_ID"); val != "" {
		fmt.Sscanf(val, "%d", &c.Lending.DefaultHandlerEmployeeID)
	}
	if val := os.Getenv("LENDING_DEFAULT_LOCATION_ID"); val != "" {
		fmt.Sscanf(val, "%d", &c.Lending.DefaultLocationID)
	}

	// Notification
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notification.SendGridAPIKey = val
	}
	if val := os.Getenv("OPS_EMAIL"); val != "" {
		c.Notification.OpsEmail = val
	}

	// Kafka
	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}

	// Tracing
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
		c.Tracing.Enabled = true
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = c.Server.Port + 1
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 || c.Server.HTTPPort == c.Server.Port {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}

	// Database validation
	if c.Database.Type == "" {
		c.Database.Type = "postgres"
	}
	switch c.Database.Type {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.MaxOpenConns == 0 {
			c.Database.MaxOpenConns = 20
		}
		if c.Database.MaxIdleConns == 0 {
			c.Database.MaxIdleConns = 5
		}
		if c.Database.ConnMaxLifetime == 0 {
			c.Database.ConnMaxLifetime = 30
		}
	default:
		return fmt.Errorf("unknown database type: %q", c.Database.Type)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Lending defaults
	if c.Lending.DefaultHandlerEmployeeID < 0 || c.Lending.DefaultLocationID < 0 {
		return fmt.Errorf("lending defaults must not be negative")
	}
	if c.Lending.LockRetryAttempts == 0 {
		c.Lending.LockRetryAttempts = 5
	}
	if c.Lending.LockRetryInitialMillis == 0 {
		c.Lending.LockRetryInitialMillis = 20
	}
	if c.Lending.LockRetryMaxMillis == 0 {
		c.Lending.LockRetryMaxMillis = 250
	}
	if c.Lending.OperationTimeoutSeconds == 0 {
		c.Lending.OperationTimeoutSeconds = 10
	}

	// Scheduler defaults
	if c.Scheduler.MarkOverdueRequests == "" {
		c.Scheduler.MarkOverdueRequests = "0 0 2 * * *" // 2 AM UTC
	}
	if c.Scheduler.SendOverdueReminders == "" {
		c.Scheduler.SendOverdueReminders = "0 0 8 * * *" // 8 AM UTC
	}
	if c.Scheduler.RelayTransactionEvents == "" {
		c.Scheduler.RelayTransactionEvents = "*/30 * * * * *" // every 30 seconds
	}

	// Notification defaults
	if c.Notification.FromName == "" {
		c.Notification.FromName = "Warehouse Lending"
	}

	// Kafka defaults
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "lending.transaction-events"
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 100
	}

	// Tracing defaults
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "warehouse-lending"
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the gRPC server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHTTPAddress returns the reporting HTTP server address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

func (l LendingConfig) LockRetryInitial() time.Duration {
	return time.Duration(l.LockRetryInitialMillis) * time.Millisecond
}

func (l LendingConfig) LockRetryMax() time.Duration {
	return time.Duration(l.LockRetryMaxMillis) * time.Millisecond
}

func (l LendingConfig) OperationTimeout() time.Duration {
	return time.Duration(l.OperationTimeoutSeconds) * time.Second
}

func (d DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Minute
}

// NotificationsEnabled reports whether the overdue digest can be sent.
func (c *Config) NotificationsEnabled() bool {
	return c.Notification.SendGridAPIKey != "" && c.Notification.OpsEmail != "" && c.Notification.FromEmail != ""
}

// RelayEnabled reports whether transaction events are published to Kafka.
func (c *Config) RelayEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
