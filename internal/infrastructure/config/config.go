package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Logger      LoggerConfig     `mapstructure:"logger"`
	Redis       RedisConfig      `mapstructure:"redis"`
	AMQP        AMQPConfig       `mapstructure:"amqp"`
	Scheduler   SchedulerConfig  `mapstructure:"scheduler"`
	Allocation  AllocationConfig `mapstructure:"allocation"`
	AdminIDs    []string         `mapstructure:"adminIds"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
	AllowedOrigins    []string      `mapstructure:"allowedOrigins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"timeFormat"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// RedisConfig enables the Redis job lock when Addr is set
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AMQPConfig enables the RabbitMQ publishers when URL is set
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// SchedulerConfig contains the periodic job intervals
type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	ReservationExpiry time.Duration `mapstructure:"reservationExpiry"` // minutes
	OverduePayments   time.Duration `mapstructure:"overduePayments"`   // minutes
	MissedTurns       time.Duration `mapstructure:"missedTurns"`       // minutes
}

// AllocationConfig holds the business defaults used when a setting is missing from the store
type AllocationConfig struct {
	BookingDurationHours      int    `mapstructure:"bookingDurationHours"`
	BookingAmountType         string `mapstructure:"bookingAmountType"`
	BookingAmountFixed        string `mapstructure:"bookingAmountFixed"`
	BookingAmountPercentage   string `mapstructure:"bookingAmountPercentage"`
	RefundConfirmedPercentage string `mapstructure:"refundConfirmedPercentage"`
	RefundDefaultPercentage   string `mapstructure:"refundDefaultPercentage"`
	DepositMinPercentage      string `mapstructure:"depositMinPercentage"`
	ReservationDurationHours  int    `mapstructure:"reservationDurationHours"`
	YourTurnDeadlineHours     int    `mapstructure:"yourTurnDeadlineHours"`
	QueueBatchSize            int    `mapstructure:"queueBatchSize"`
	QueueConcurrency          int    `mapstructure:"queueConcurrency"`
}
