package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Approvals ApprovalsConfig
	Audit     AuditConfig
	Features  FeaturesConfig
}

// FeaturesConfig toggles endpoint groups that depend on downstream payroll
// processing being ready for the data these endpoints produce.
type FeaturesConfig struct {
	Deductions      bool
	ProjectPayments bool
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ApprovalsConfig tunes the approval workflow engine. The fallback employee
// IDs are the last resort when a role-holder setting is missing or malformed.
type ApprovalsConfig struct {
	RoleCacheTTL             time.Duration
	FallbackHRManagerID      string
	FallbackFinanceManagerID string
	FallbackGeneralManagerID string
	TimelineNamePlaceholder  string
}

// AuditConfig tunes the asynchronous audit log writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Approvals = ApprovalsConfig{
		RoleCacheTTL:             parseDuration(v.GetString("APPROVAL_ROLE_CACHE_TTL"), 10*time.Minute),
		FallbackHRManagerID:      v.GetString("APPROVAL_FALLBACK_HR_MANAGER_ID"),
		FallbackFinanceManagerID: v.GetString("APPROVAL_FALLBACK_FINANCE_MANAGER_ID"),
		FallbackGeneralManagerID: v.GetString("APPROVAL_FALLBACK_GENERAL_MANAGER_ID"),
		TimelineNamePlaceholder:  v.GetString("APPROVAL_TIMELINE_NAME_PLACEHOLDER"),
	}

	cfg.Audit = AuditConfig{
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER_SIZE"),
		MaxRetries: v.GetInt("AUDIT_MAX_RETRIES"),
	}

	cfg.Features = FeaturesConfig{
		Deductions:      v.GetBool("FEATURE_DEDUCTIONS"),
		ProjectPayments: v.GetBool("FEATURE_PROJECT_PAYMENTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hcm_core")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("APPROVAL_ROLE_CACHE_TTL", "10m")
	v.SetDefault("APPROVAL_FALLBACK_HR_MANAGER_ID", "EMP-HR-0001")
	v.SetDefault("APPROVAL_FALLBACK_FINANCE_MANAGER_ID", "EMP-FIN-0001")
	v.SetDefault("APPROVAL_FALLBACK_GENERAL_MANAGER_ID", "EMP-GM-0001")
	v.SetDefault("APPROVAL_TIMELINE_NAME_PLACEHOLDER", "Unknown Employee")

	v.SetDefault("AUDIT_WORKERS", 1)
	v.SetDefault("AUDIT_BUFFER_SIZE", 64)
	v.SetDefault("AUDIT_MAX_RETRIES", 3)

	v.SetDefault("FEATURE_DEDUCTIONS", true)
	v.SetDefault("FEATURE_PROJECT_PAYMENTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
