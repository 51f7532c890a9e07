package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix prefixes every environment override, e.g. UA_DB_HOST
const EnvPrefix = "UA"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
}

// LoadConfig loads configuration from file based on the environment.
// A missing config file is not an error: defaults and environment variables still apply.
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env
	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return nil
			} else {
				lastError = err
			}
		}
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}

	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 30)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 15)   // seconds

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.queryTimeout", 10)    // seconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 2) // seconds

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.callerInfo", true)

	v.SetDefault("redis.db", 0)

	v.SetDefault("amqp.exchange", "allocation.events")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.reservationExpiry", 60) // minutes
	v.SetDefault("scheduler.overduePayments", 60)   // minutes
	v.SetDefault("scheduler.missedTurns", 30)       // minutes

	v.SetDefault("allocation.bookingDurationHours", 48)
	v.SetDefault("allocation.bookingAmountType", "FIXED")
	v.SetDefault("allocation.bookingAmountFixed", "50000000")
	v.SetDefault("allocation.bookingAmountPercentage", "1")
	v.SetDefault("allocation.refundConfirmedPercentage", "50")
	v.SetDefault("allocation.refundDefaultPercentage", "100")
	v.SetDefault("allocation.depositMinPercentage", "5")
	v.SetDefault("allocation.reservationDurationHours", 24)
	v.SetDefault("allocation.yourTurnDeadlineHours", 48)
	v.SetDefault("allocation.queueBatchSize", 20)
	v.SetDefault("allocation.queueConcurrency", 5)
}

// getEnvironment determines the environment to use based on UA_ENV
func getEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides maps the short, documented variable names onto config keys.
// Environment variables always win over the config file.
func processEnvOverrides(v *viper.Viper) {
	strOverrides := map[string]string{
		"DB_HOST":        "database.host",
		"DB_PORT":        "database.port",
		"DB_USERNAME":    "database.username",
		"DB_PASSWORD":    "database.password",
		"DB_NAME":        "database.database",
		"DB_SSL_MODE":    "database.sslMode",
		"SERVER_HOST":    "server.host",
		"SERVER_PORT":    "server.port",
		"LOGGER_LEVEL":   "logger.level",
		"REDIS_ADDR":     "redis.addr",
		"REDIS_PASSWORD": "redis.password",
		"AMQP_URL":       "amqp.url",
		"AMQP_EXCHANGE":  "amqp.exchange",
	}
	for name, key := range strOverrides {
		if value := os.Getenv(EnvPrefix + "_" + name); value != "" {
			v.Set(key, value)
		}
	}

	intOverrides := map[string]string{
		"DB_MAX_OPEN_CONNS":                "database.maxOpenConns",
		"DB_MAX_IDLE_CONNS":                "database.maxIdleConns",
		"DB_CONN_MAX_LIFETIME_MINUTES":     "database.connMaxLifetime",
		"DB_QUERY_TIMEOUT_SECONDS":         "database.queryTimeout",
		"REDIS_DB":                         "redis.db",
		"QUEUE_PROCESSING_BATCH_SIZE":      "allocation.queueBatchSize",
		"QUEUE_PROCESSING_CONCURRENCY":     "allocation.queueConcurrency",
		"SCHEDULER_MISSED_TURNS_MINUTES":   "scheduler.missedTurns",
		"SCHEDULER_RESERVATION_EXPIRY_MIN": "scheduler.reservationExpiry",
	}
	for name, key := range intOverrides {
		if value := getEnvInt(EnvPrefix+"_"+name, -1); value >= 0 {
			v.Set(key, value)
		}
	}

	if origins := os.Getenv(EnvPrefix + "_ALLOWED_ORIGINS"); origins != "" {
		v.Set("server.allowedOrigins", splitList(origins))
	}
	if ids := os.Getenv(EnvPrefix + "_ADMIN_IDS"); ids != "" {
		v.Set("adminIds", splitList(ids))
	}
	if enabled := os.Getenv(EnvPrefix + "_SCHEDULER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			v.Set("scheduler.enabled", b)
		}
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper function to get environment variable as int
func getEnvInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// processDurations converts time.Duration fields from their raw values to actual durations
func processDurations(config *Config) {
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second

	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute
	config.Database.QueryTimeout = time.Duration(config.Database.QueryTimeout) * time.Second
	config.Database.RetryDelay = time.Duration(config.Database.RetryDelay) * time.Second

	config.Scheduler.ReservationExpiry = time.Duration(config.Scheduler.ReservationExpiry) * time.Minute
	config.Scheduler.OverduePayments = time.Duration(config.Scheduler.OverduePayments) * time.Minute
	config.Scheduler.MissedTurns = time.Duration(config.Scheduler.MissedTurns) * time.Minute
}
