// Package config loads application configuration from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Mail       MailConfig
	Storage    StorageConfig
	Notify     NotifyConfig
	Processing ProcessingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `validate:"required"`
	Port string `validate:"required,numeric"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	User     string `validate:"required"`
	Password string `validate:"required"`
	DBName   string `validate:"required"`
	SSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

// MailConfig holds mailbox access configuration for the external mail
// source collaborator.
type MailConfig struct {
	Server      string
	Port        int `validate:"min=0,max=65535"`
	Username    string
	Password    string
	Mailbox     string
	SpoolDir    string
	ThermoLabel string
	PoolLabel   string
}

// StorageConfig holds S3/MinIO attachment archive configuration. The
// archive is optional; with no endpoint configured attachments are not
// archived.
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// NotifyConfig holds chat webhook configuration. Notifications are
// optional; with no URL configured they are disabled.
type NotifyConfig struct {
	WebhookURL string `validate:"omitempty,url"`
	Timeout    time.Duration
}

// ProcessingConfig holds ingestion pipeline configuration.
type ProcessingConfig struct {
	// MessageLimit caps how many messages one run processes; 0 means
	// no limit.
	MessageLimit int `validate:"min=0"`
	// Interval between ingest runs.
	Interval time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "homemetrics"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Mail: MailConfig{
			Server:      getEnv("IMAP_SERVER", "imap.gmail.com"),
			Port:        getIntEnv("IMAP_PORT", 993),
			Username:    getEnv("IMAP_USERNAME", ""),
			Password:    getEnv("IMAP_PASSWORD", ""),
			Mailbox:     getEnv("IMAP_MAILBOX", "INBOX"),
			SpoolDir:    getEnv("MAIL_SPOOL_DIR", ""),
			ThermoLabel: getEnv("MAIL_THERMO_LABEL", "homemetrics-todo-thermo"),
			PoolLabel:   getEnv("MAIL_POOL_LABEL", "homemetrics-todo-pool"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			Bucket:          getEnv("STORAGE_BUCKET", "homemetrics-attachments"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			UseSSL:          getBoolEnv("STORAGE_USE_SSL", true),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Timeout:    getDurationEnv("NOTIFY_TIMEOUT_SECONDS", 10*time.Second),
		},
		Processing: ProcessingConfig{
			MessageLimit: getIntEnv("PROCESSING_MESSAGE_LIMIT", 0),
			Interval:     getDurationEnv("PROCESSING_INTERVAL_SECONDS", 5*time.Minute),
		},
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + d.Port +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.DBName +
		" sslmode=" + d.SSLMode
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv reads a duration expressed in seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
