package internal

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Leave         LeaveConfig         `mapstructure:"leave"`
	Mail          MailConfig          `mapstructure:"mail"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Outbox        OutboxConfig        `mapstructure:"outbox"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" validate:"required"`
}

type SecurityConfig struct {
	JWTPrivateKey        string        `mapstructure:"jwt_private_key" validate:"required"`
	JWTPublicKey         string        `mapstructure:"jwt_public_key" validate:"required"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m,max=1h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

type LeaveConfig struct {
	DeductOnApproval bool   `mapstructure:"deduct_on_approval"`
	Timezone         string `mapstructure:"timezone"`
}

type MailConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	APIURL      string        `mapstructure:"api_url" validate:"required_if=Enabled true,omitempty,url"`
	APIKey      string        `mapstructure:"api_key"`
	From        string        `mapstructure:"from" validate:"required_if=Enabled true,omitempty,email"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxWorkers  int           `mapstructure:"max_workers" validate:"min=0,max=64"`
	QueueSize   int           `mapstructure:"queue_size" validate:"min=0"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type SchedulerConfig struct {
	AccrualDay        int           `mapstructure:"accrual_day" validate:"min=0,max=28"`
	CarryForwardMonth int           `mapstructure:"carry_forward_month" validate:"min=0,max=12"`
	CarryForwardDay   int           `mapstructure:"carry_forward_day" validate:"min=0,max=28"`
	Interval          time.Duration `mapstructure:"interval"`
}

type OutboxConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	BatchSize   int           `mapstructure:"batch_size" validate:"min=0,max=1000"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=0"`
	BaseBackoff time.Duration `mapstructure:"base_backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
}

// LoadConfigFromEnv builds the configuration from plain environment variables
// for container deployments where no config.yml is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			JWTPrivateKey:        getEnv("JWT_PRIVATE_KEY", ""),
			JWTPublicKey:         getEnv("JWT_PUBLIC_KEY", ""),
			AccessTokenDuration:  getEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("REFRESH_TOKEN_DURATION", 168*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 12),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		Leave: LeaveConfig{
			DeductOnApproval: getEnvAsBool("LEAVE_DEDUCT_ON_APPROVAL", false),
			Timezone:         getEnv("LEAVE_TIMEZONE", "UTC"),
		},
		Mail: MailConfig{
			Enabled:     getEnvAsBool("MAIL_ENABLED", false),
			APIURL:      getEnv("MAIL_API_URL", ""),
			APIKey:      getEnv("MAIL_API_KEY", ""),
			From:        getEnv("MAIL_FROM", ""),
			Timeout:     getEnvAsDuration("MAIL_TIMEOUT", 10*time.Second),
			MaxWorkers:  getEnvAsInt("MAIL_MAX_WORKERS", 4),
			QueueSize:   getEnvAsInt("MAIL_QUEUE_SIZE", 100),
			MaxAttempts: getEnvAsInt("MAIL_MAX_ATTEMPTS", 3),
			RetryDelay:  getEnvAsDuration("MAIL_RETRY_DELAY", 2*time.Second),
		},
		Scheduler: SchedulerConfig{
			AccrualDay:        getEnvAsInt("SCHEDULER_ACCRUAL_DAY", 1),
			CarryForwardMonth: getEnvAsInt("SCHEDULER_CARRY_FORWARD_MONTH", 1),
			CarryForwardDay:   getEnvAsInt("SCHEDULER_CARRY_FORWARD_DAY", 1),
			Interval:          getEnvAsDuration("SCHEDULER_INTERVAL", time.Hour),
		},
		Outbox: OutboxConfig{
			Interval:    getEnvAsDuration("OUTBOX_INTERVAL", 2*time.Second),
			BatchSize:   getEnvAsInt("OUTBOX_BATCH_SIZE", 50),
			MaxAttempts: getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 5),
			BaseBackoff: getEnvAsDuration("OUTBOX_BASE_BACKOFF", 5*time.Second),
			MaxBackoff:  getEnvAsDuration("OUTBOX_MAX_BACKOFF", 10*time.Minute),
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Leave.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("leave config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if _, err := c.GetPrivateKey(); err != nil {
		return fmt.Errorf("invalid JWT private key: %w", err)
	}
	if _, err := c.GetPublicKey(); err != nil {
		return fmt.Errorf("invalid JWT public key: %w", err)
	}
	return nil
}

func (c *SecurityConfig) GetPrivateKey() (*rsa.PrivateKey, error) {
	keyData, err := base64.StdEncoding.DecodeString(c.JWTPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block")
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func (c *SecurityConfig) GetPublicKey() (*rsa.PublicKey, error) {
	keyData, err := base64.StdEncoding.DecodeString(c.JWTPublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaPub, nil
}

func (c *LeaveConfig) Validate() error {
	_, err := c.Location()
	return err
}

// Location resolves Timezone, defaulting to UTC when unset.
func (c *LeaveConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
