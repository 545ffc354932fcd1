// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct. It is constructed
// once at startup and passed by injection; business logic never reads the
// environment directly.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Mail          MailConfig         `mapstructure:"mail"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Sweep         SweepConfig        `mapstructure:"sweep"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig holds settings for the resume blob store.
type StorageConfig struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	SignedURLDays int    `mapstructure:"signed_url_days"`
}

// MailConfig holds settings for the SES mail transport.
type MailConfig struct {
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
}

// NotificationConfig governs the queue-and-retry delivery pipeline.
type NotificationConfig struct {
	QueueKey      string `mapstructure:"queue_key"`
	MaxAttempts   int    `mapstructure:"max_attempts"`
	RetryDelayMS  int    `mapstructure:"retry_delay_ms"`
	PopTimeoutSec int    `mapstructure:"pop_timeout_sec"`
}

// SweepConfig governs the daily deadline sweep.
type SweepConfig struct {
	// Schedule is a cron expression; a single global daily firing, no
	// catch-up for runs missed while the process was down.
	Schedule string `mapstructure:"schedule"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
