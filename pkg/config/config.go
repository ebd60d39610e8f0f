package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the complete configuration for the middleware process
type AppConfig struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	ServiceName string         `mapstructure:"service_name"`
	HTTPAddr    string         `mapstructure:"http_addr"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Rabbit      RabbitConfig   `mapstructure:"rabbit"`
	Workers     WorkerConfig   `mapstructure:"workers"`
}

// PostgresConfig configures the authoritative player-data store.
// An empty URI leaves the store unconfigured; fetches then yield absent
// results and updates become no-ops.
type PostgresConfig struct {
	URI             string        `mapstructure:"uri"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// RedisConfig configures the cache mirror. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RabbitConfig holds the broker connection parameters
type RabbitConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
}

// WorkerConfig sizes the shared task pool
type WorkerConfig struct {
	Count      int `mapstructure:"count"`
	QueueDepth int `mapstructure:"queue_depth"`
}

// URI builds the AMQP connection string
func (c RabbitConfig) URI() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

// Load loads configuration from file and environment variables
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	// Default values
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("postgres.uri", "")
	v.SetDefault("postgres.max_conns", 20)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rabbit.port", 5672)
	v.SetDefault("workers.count", 8)
	v.SetDefault("workers.queue_depth", 64)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// Bind environment variables explicitly for nested structs to ensure Unmarshal picks them up
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("http_addr", "HTTP_ADDR")
	v.BindEnv("postgres.uri", "POSTGRES_URI")
	v.BindEnv("postgres.max_conns", "POSTGRES_MAX_CONNS")
	v.BindEnv("postgres.min_conns", "POSTGRES_MIN_CONNS")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("rabbit.user", "RABBIT_USER")
	v.BindEnv("rabbit.password", "RABBIT_PASSWORD")
	v.BindEnv("rabbit.host", "RABBIT_HOST")
	v.BindEnv("rabbit.port", "RABBIT_PORT")
	v.BindEnv("workers.count", "WORKERS_COUNT")
	v.BindEnv("workers.queue_depth", "WORKERS_QUEUE_DEPTH")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.Rabbit.User == "" {
		return errors.New("rabbit.user is required")
	}
	if c.Rabbit.Password == "" {
		return errors.New("rabbit.password is required")
	}
	if c.Rabbit.Host == "" {
		return errors.New("rabbit.host is required")
	}
	if c.Rabbit.Port <= 0 || c.Rabbit.Port > 65535 {
		return errors.New("rabbit.port must be a valid port number")
	}
	if c.Workers.Count <= 0 {
		return errors.New("workers.count must be positive")
	}
	return nil
}
