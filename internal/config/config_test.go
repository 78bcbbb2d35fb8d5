package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 50051
database:
  host: localhost
  port: 5432
  user: lending
  database: lending
jwt:
  secret: `+testSecret+`
lending:
  default_location_id: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50052, cfg.Server.HTTPPort)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, int32(0), cfg.Lending.DefaultHandlerEmployeeID)
	assert.Equal(t, int32(3), cfg.Lending.DefaultLocationID)
	assert.Equal(t, 5, cfg.Lending.LockRetryAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Lending.LockRetryInitial())
	assert.Equal(t, 10*time.Second, cfg.Lending.OperationTimeout())
	assert.Equal(t, "0 0 2 * * *", cfg.Scheduler.MarkOverdueRequests)
	assert.Equal(t, "lending.transaction-events", cfg.Kafka.Topic)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.RelayEnabled())
	assert.False(t, cfg.NotificationsEnabled())
	assert.Equal(t, "postgres://lending:@localhost:5432/lending?sslmode=disable", cfg.GetDatabaseConnectionString())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 50051
database:
  type: memory
jwt:
  secret: `+testSecret+`
`)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("LENDING_DEFAULT_HANDLER_ID", "7")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.RelayEnabled())
	assert.Equal(t, int32(7), cfg.Lending.DefaultHandlerEmployeeID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate_Errors(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 50051},
			Database: DatabaseConfig{Type: "memory"},
			JWT:      JWTConfig{Secret: testSecret},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"clashing http port", func(c *Config) { c.Server.HTTPPort = 50051 }, "invalid http port"},
		{"unknown database", func(c *Config) { c.Database.Type = "mysql" }, "unknown database type"},
		{"postgres without host", func(c *Config) { c.Database.Type = "postgres" }, "database host is required"},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "at least 32 characters"},
		{"negative location", func(c *Config) { c.Lending.DefaultLocationID = -1 }, "must not be negative"},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }, "tracing endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("/grpc.health.v1.Health/Check"))
	assert.Equal(t, SecurityCustomer, GetSecurityLevel("/lending.v1.BorrowingService/SubmitRequest"))
	assert.Equal(t, SecurityStaff, GetSecurityLevel("/lending.v1.BorrowingService/ApproveRequest"))
	assert.Equal(t, SecurityStaff, GetSecurityLevel("/lending.v1.BorrowingService/Unknown"))
}
