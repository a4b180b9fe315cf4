package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Approval ApprovalConfig `mapstructure:"approval"`
	Cart     CartConfig     `mapstructure:"cart"`
	Access   AccessConfig   `mapstructure:"access"`
	API      APIConfig      `mapstructure:"api"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// ApprovalConfig holds decision-time ledger policy
type ApprovalConfig struct {
	// AllowOverdraft lets approved debits take a balance below zero
	AllowOverdraft bool `mapstructure:"allow_overdraft"`
	// CheckFundsAtSubmit enables the advisory balance check when a cart is submitted
	CheckFundsAtSubmit bool `mapstructure:"check_funds_at_submit"`
}

// CartConfig holds draft lifetime configuration
type CartConfig struct {
	IdleExpiry time.Duration `mapstructure:"idle_expiry"`
}

// AccessConfig holds approver role configuration
type AccessConfig struct {
	// GlobalApproverRole authorizes approvers in every scope when set
	GlobalApproverRole string `mapstructure:"global_approver_role"`
}

// APIConfig holds HTTP API protection configuration
type APIConfig struct {
	AdminToken     string  `mapstructure:"admin_token"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/budgetbot.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Approval defaults: non-negative balances, advisory submit check on
	viper.SetDefault("approval.allow_overdraft", false)
	viper.SetDefault("approval.check_funds_at_submit", true)

	// Cart defaults
	viper.SetDefault("cart.idle_expiry", 10*time.Minute)

	// API defaults
	viper.SetDefault("api.rate_limit_rps", 20.0)
	viper.SetDefault("api.rate_limit_burst", 40)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("api.admin_token", "BUDGETBOT_ADMIN_TOKEN")
	viper.BindEnv("access.global_approver_role", "BUDGETBOT_GLOBAL_APPROVER_ROLE")
	viper.BindEnv("database.path", "BUDGETBOT_DB_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.API.AdminToken == "" {
		return fmt.Errorf("api.admin_token is required")
	}
	if c.Cart.IdleExpiry <= 0 {
		return fmt.Errorf("cart.idle_expiry must be positive")
	}
	if c.API.RateLimitRPS <= 0 {
		return fmt.Errorf("api.rate_limit_rps must be positive")
	}
	return nil
}
