package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const (
	CONFIG_PATH         = "./res/config.yaml"
	TISTORY_CONFIG_PATH = "./res/tistory.yaml"
	// CONFIG_PATH_ENV overrides the default path of either service.
	CONFIG_PATH_ENV = "CONFIG_PATH"

	DatabaseTypePostgres = "postgres"
	DatabaseTypeMongo    = "mongo"
)

// ServiceConfig holds the configuration for the service.
type ServiceConfig struct {
	ServiceName    string             `yaml:"service_name" validate:"required"`
	LogLevel       string             `yaml:"loglevel" validate:"required"`
	Host           string             `yaml:"host"`
	Port           string             `yaml:"port" validate:"required,numeric"`
	PrivateKeyPath string             `yaml:"private_key_path" validate:"required"`
	SessionTTL     time.Duration      `yaml:"session_ttl" validate:"gt=0"`
	BcryptCost     int                `yaml:"bcrypt_cost" validate:"omitempty,min=4,max=31"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	Database       Database           `yaml:"database"`
	AccessPolicy   AccessPolicyConfig `yaml:"access_policy"`
}

// RateLimitConfig configures the token bucket in front of credential endpoints.
// A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"required_with=RequestsPerSecond,gte=0"`
}

type Database struct {
	Type string `yaml:"type" validate:"required,oneof=postgres mongo"`
	// For MongoDB
	MongoDB *MongoDBConfig `yaml:"mongodb_config" validate:"required_if=Type mongo"`
	// For PostgreSQL
	Postgres *PostgresConfig `yaml:"postgres_config" validate:"required_if=Type postgres"`
}

// MongoDBConfig holds the MongoDB connection settings.
type MongoDBConfig struct {
	DSN              string             `yaml:"dsn" validate:"required"`
	DatabaseName     string             `yaml:"database_name" validate:"required"`
	Timeout          time.Duration      `yaml:"timeout"`
	Options          MongoServerOptions `yaml:"mongo_server_options"`
	ValidCollections []string           `yaml:"valid_collections" validate:"required,min=1"`
	ValidFields      []string           `yaml:"valid_fields" validate:"required,min=1"`
}

// PostgresConfig holds the PostgreSQL connection settings.
type PostgresConfig struct {
	DSN         string                `yaml:"dsn" validate:"required"`
	Options     PostgresServerOptions `yaml:"postgres_server_options"`
	ValidTables []string              `yaml:"valid_tables" validate:"required,min=1"`
	ValidFields []string              `yaml:"valid_fields" validate:"required,min=1"`
}

type MongoServerOptions struct {
	APIVersion           string `yaml:"api_version"`
	SetStrict            bool   `yaml:"set_strict"`
	SetDeprecationErrors bool   `yaml:"set_deprecation_errors"`
}

type PostgresServerOptions struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AccessPolicyConfig is the route authorization table of one deployable.
// Rules are evaluated top to bottom; the last one must be the "/**" catch-all.
type AccessPolicyConfig struct {
	CSRFEnabled    bool             `yaml:"csrf_enabled"`
	AllowedOrigins []string         `yaml:"allowed_origins" validate:"required_if=CSRFEnabled true,dive,url"`
	AdminUsers     []string         `yaml:"admin_users" validate:"dive,required"`
	Rules          []RuleConfig     `yaml:"rules" validate:"required,min=1,dive"`
	FormLogin      *FormLoginConfig `yaml:"form_login" validate:"omitempty"`
}

type RuleConfig struct {
	Pattern string   `yaml:"pattern" validate:"required,startswith=/"`
	Access  string   `yaml:"access" validate:"required,oneof=permit_all authenticated has_any_role"`
	Roles   []string `yaml:"roles" validate:"required_if=Access has_any_role,dive,required"`
}

// FormLoginConfig enables the browser login flow.
type FormLoginConfig struct {
	LoginPage         string `yaml:"login_page" validate:"required,startswith=/"`
	ProcessingURL     string `yaml:"processing_url" validate:"required,startswith=/"`
	DefaultSuccessURL string `yaml:"default_success_url" validate:"required,startswith=/"`
	FailureURL        string `yaml:"failure_url" validate:"omitempty,startswith=/"`
}

// ReadLocalConfig reads the service configuration from a YAML file at the specified path.
// ${VAR} references are expanded from the environment before the content is unmarshaled.
// If there is an error reading the file or unmarshaling the content, it returns an error.
func ReadLocalConfig(configPath string) (*ServiceConfig, error) {
	config := &ServiceConfig{}

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal([]byte(os.ExpandEnv(string(yamlFile))), config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the struct tags of cfg with the given validator.
func Validate(validate *validator.Validate, cfg *ServiceConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// ResolvePath returns the CONFIG_PATH environment variable when set, otherwise fallback.
func ResolvePath(fallback string) string {
	if path := os.Getenv(CONFIG_PATH_ENV); path != "" {
		return path
	}
	return fallback
}

func BuildServerAPIOptions(cfg MongoServerOptions) *options.ServerAPIOptions {
	opts := options.ServerAPI(options.ServerAPIVersion(cfg.APIVersion))
	opts.SetStrict(cfg.SetStrict)
	opts.SetDeprecationErrors(cfg.SetDeprecationErrors)

	return opts
}

func ListToMap(list []string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range list {
		result[item] = true
	}
	return result
}
