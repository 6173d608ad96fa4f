package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"homelink-backend/pkg/utils"
)

// Store backends
const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address" validate:"required"`
	Environment   string `yaml:"environment" validate:"required"`

	// Stages where internal error detail is redacted from responses
	ProtectedStages []string `yaml:"protected_stages"`

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	DevicesTable     string `yaml:"devices_table"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
	StoreBackend     string `yaml:"store_backend" validate:"oneof=dynamodb memory"`
	EventBusName     string `yaml:"event_bus_name"`
	EventSource      string `yaml:"event_source"`
	MetricsNamespace string `yaml:"metrics_namespace"`

	// Lambda configuration
	IsLambda bool `yaml:"is_lambda"`

	// Logging
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Authentication for local deployments
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Feature flags
	EnableMetrics  bool     `yaml:"enable_metrics"`
	EnableTracing  bool     `yaml:"enable_tracing"`
	EnableCORS     bool     `yaml:"enable_cors"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the store circuit breaker
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold" validate:"gt=0"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerAddress:    ":8080",
		Environment:      "development",
		ProtectedStages:  []string{"production"},
		AWSRegion:        "eu-west-2",
		DevicesTable:     "Devices",
		StoreBackend:     StoreDynamoDB,
		EventSource:      "homelink.devices",
		MetricsNamespace: "HomeLINK/Devices",
		LogLevel:         "info",
		JWTIssuer:        "homelink-local",
		EnableCORS:       true,
		AllowedOrigins:   []string{"*"},
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// LoadConfig layers defaults, the optional YAML file named by CONFIG_FILE,
// and environment variables, in that order
func LoadConfig() (*Config, error) {
	if path := ConfigFile(); path != "" {
		return loadFrom(path)
	}

	cfg := Default()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFile names the optional YAML file, empty when none is set
func ConfigFile() string {
	return os.Getenv("CONFIG_FILE")
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", getEnv("STAGE", c.Environment))
	c.ProtectedStages = getEnvList("PROTECTED_STAGES", c.ProtectedStages)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DevicesTable = getEnv("TABLE_NAME", getEnv("DEVICES_TABLE", c.DevicesTable))
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.EventSource = getEnv("EVENT_SOURCE", c.EventSource)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)

	c.Breaker.Enabled = getEnvBool("BREAKER_ENABLED", c.Breaker.Enabled)
	c.Breaker.MaxRequests = uint32(getEnvInt("BREAKER_MAX_REQUESTS", int(c.Breaker.MaxRequests)))
	c.Breaker.Interval = getEnvDuration("BREAKER_INTERVAL", c.Breaker.Interval)
	c.Breaker.Timeout = getEnvDuration("BREAKER_TIMEOUT", c.Breaker.Timeout)
	c.Breaker.FailureThreshold = uint32(getEnvInt("BREAKER_FAILURE_THRESHOLD", int(c.Breaker.FailureThreshold)))
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.StoreBackend == StoreDynamoDB && c.DevicesTable == "" {
		return fmt.Errorf("TABLE_NAME is required for the dynamodb store")
	}

	if c.IsProduction() {
		if c.StoreBackend != StoreDynamoDB {
			return fmt.Errorf("the %s store cannot be used in production", c.StoreBackend)
		}
		if !c.IsLambda && c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production outside Lambda")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsProtected reports whether internal error detail must be hidden in this stage
func (c *Config) IsProtected() bool {
	for _, stage := range c.ProtectedStages {
		if strings.EqualFold(stage, c.Environment) {
			return true
		}
	}
	return false
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList reads a comma separated list
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
