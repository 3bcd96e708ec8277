package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Processor ProcessorConfig
	Workflow  WorkflowConfig
	Store     StoreConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// ProcessorConfig holds settings for the external document-processing API.
type ProcessorConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"api_key"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	TimeoutSecs  int           `mapstructure:"timeout_secs"`
}

// WorkflowConfig holds upload/review/confirm workflow settings.
type WorkflowConfig struct {
	ResetDelay      time.Duration `mapstructure:"reset_delay"`
	SessionMaxAge   time.Duration `mapstructure:"session_max_age"`
	MaxFileSizeMB   int64         `mapstructure:"max_file_size_mb"`
	SoftResetOnBack bool          `mapstructure:"soft_reset_on_back"`
}

// StoreConfig selects and configures the persistence backend used on confirm.
type StoreConfig struct {
	Backend        string        `mapstructure:"backend"`
	Endpoint       string        `mapstructure:"endpoint"`
	TimeoutSecs    int           `mapstructure:"timeout_secs"`
	SimulatedDelay time.Duration `mapstructure:"simulated_delay"`
}

// Store backends.
const (
	StoreBackendSimulated = "simulated"
	StoreBackendHTTP      = "http"
	StoreBackendS3        = "s3"
	StoreBackendPostgres  = "postgres"
)

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds the settings used to validate identity-provider tokens.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	Issuer            string        `mapstructure:"issuer"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// IsProduction reports whether the server runs in the production environment.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// Load reads configuration from environment variables with the DOCFLOW_ prefix.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration from v, applying defaults and environment
// bindings first. Callers may pre-bind command line flags into v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("DOCFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "DOCFLOW_SERVER_PORT",
		"server.read_timeout":         "DOCFLOW_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "DOCFLOW_SERVER_WRITE_TIMEOUT",
		"server.environment":          "DOCFLOW_SERVER_ENVIRONMENT",
		"processor.endpoint":          "DOCFLOW_PROCESSOR_ENDPOINT",
		"processor.api_key":           "DOCFLOW_PROCESSOR_API_KEY",
		"processor.poll_interval":     "DOCFLOW_PROCESSOR_POLL_INTERVAL",
		"processor.max_attempts":      "DOCFLOW_PROCESSOR_MAX_ATTEMPTS",
		"processor.timeout_secs":      "DOCFLOW_PROCESSOR_TIMEOUT_SECS",
		"workflow.reset_delay":        "DOCFLOW_WORKFLOW_RESET_DELAY",
		"workflow.session_max_age":    "DOCFLOW_WORKFLOW_SESSION_MAX_AGE",
		"workflow.max_file_size_mb":   "DOCFLOW_WORKFLOW_MAX_FILE_SIZE_MB",
		"workflow.soft_reset_on_back": "DOCFLOW_WORKFLOW_SOFT_RESET_ON_BACK",
		"store.backend":               "DOCFLOW_STORE_BACKEND",
		"store.endpoint":              "DOCFLOW_STORE_ENDPOINT",
		"store.timeout_secs":          "DOCFLOW_STORE_TIMEOUT_SECS",
		"store.simulated_delay":       "DOCFLOW_STORE_SIMULATED_DELAY",
		"db.host":                     "DOCFLOW_DB_HOST",
		"db.port":                     "DOCFLOW_DB_PORT",
		"db.user":                     "DOCFLOW_DB_USER",
		"db.password":                 "DOCFLOW_DB_PASSWORD",
		"db.name":                     "DOCFLOW_DB_NAME",
		"db.sslmode":                  "DOCFLOW_DB_SSLMODE",
		"db.max_open":                 "DOCFLOW_DB_MAX_OPEN",
		"db.max_idle":                 "DOCFLOW_DB_MAX_IDLE",
		"jwt.secret":                  "DOCFLOW_JWT_SECRET",
		"jwt.issuer":                  "DOCFLOW_JWT_ISSUER",
		"jwt.access_expiry":           "DOCFLOW_JWT_ACCESS_EXPIRY",
		"s3.region":                   "DOCFLOW_S3_REGION",
		"s3.bucket":                   "DOCFLOW_S3_BUCKET",
		"s3.endpoint":                 "DOCFLOW_S3_ENDPOINT",
		"s3.access_key":               "DOCFLOW_S3_ACCESS_KEY",
		"s3.secret_key":               "DOCFLOW_S3_SECRET_KEY",
		"s3.prefix":                   "DOCFLOW_S3_PREFIX",
		"log.level":                   "DOCFLOW_LOG_LEVEL",
		"log.format":                  "DOCFLOW_LOG_FORMAT",
		"cors.allowed_origins":        "DOCFLOW_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOCFLOW_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCFLOW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Processor = ProcessorConfig{
		Endpoint:     strings.TrimRight(v.GetString("processor.endpoint"), "/"),
		APIKey:       v.GetString("processor.api_key"),
		PollInterval: v.GetDuration("processor.poll_interval"),
		MaxAttempts:  v.GetInt("processor.max_attempts"),
		TimeoutSecs:  v.GetInt("processor.timeout_secs"),
	}
	cfg.Workflow = WorkflowConfig{
		ResetDelay:      v.GetDuration("workflow.reset_delay"),
		SessionMaxAge:   v.GetDuration("workflow.session_max_age"),
		MaxFileSizeMB:   v.GetInt64("workflow.max_file_size_mb"),
		SoftResetOnBack: v.GetBool("workflow.soft_reset_on_back"),
	}
	cfg.Store = StoreConfig{
		Backend:        strings.ToLower(v.GetString("store.backend")),
		Endpoint:       strings.TrimRight(v.GetString("store.endpoint"), "/"),
		TimeoutSecs:    v.GetInt("store.timeout_secs"),
		SimulatedDelay: v.GetDuration("store.simulated_delay"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		Issuer:            v.GetString("jwt.issuer"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
		Prefix:    strings.Trim(v.GetString("s3.prefix"), "/"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// Processor defaults
	v.SetDefault("processor.endpoint", "http://localhost:9000")
	v.SetDefault("processor.api_key", "")
	v.SetDefault("processor.poll_interval", "10s")
	v.SetDefault("processor.max_attempts", 30)
	v.SetDefault("processor.timeout_secs", 60)

	// Workflow defaults
	v.SetDefault("workflow.reset_delay", "2s")
	v.SetDefault("workflow.session_max_age", "30m")
	v.SetDefault("workflow.max_file_size_mb", 50)
	v.SetDefault("workflow.soft_reset_on_back", true)

	// Store defaults
	v.SetDefault("store.backend", StoreBackendSimulated)
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.timeout_secs", 30)
	v.SetDefault("store.simulated_delay", "2s")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docflow")
	v.SetDefault("db.password", "docflow_secret")
	v.SetDefault("db.name", "docflow_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "docflow")
	v.SetDefault("jwt.access_expiry", "1h")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "docflow-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.prefix", "documents")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")
}

func (c *Config) validate() error {
	if c.Processor.Endpoint == "" {
		return fmt.Errorf("config: processor.endpoint is required")
	}
	if c.Processor.PollInterval <= 0 {
		return fmt.Errorf("config: processor.poll_interval must be positive, got %s", c.Processor.PollInterval)
	}
	if c.Processor.MaxAttempts <= 0 {
		return fmt.Errorf("config: processor.max_attempts must be positive, got %d", c.Processor.MaxAttempts)
	}
	if c.Processor.TimeoutSecs < 0 {
		return fmt.Errorf("config: processor.timeout_secs must not be negative, got %d", c.Processor.TimeoutSecs)
	}
	switch c.Store.Backend {
	case StoreBackendSimulated, StoreBackendS3, StoreBackendPostgres:
	case StoreBackendHTTP:
		if c.Store.Endpoint == "" {
			return fmt.Errorf("config: store.endpoint is required for the %q backend", StoreBackendHTTP)
		}
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	return nil
}
