package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// devJWTSecret is only accepted when ENV=development.
const devJWTSecret = "dev-nutriflow-secret"

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	TokenTTL        time.Duration `mapstructure:"TOKEN_TTL"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit       string        `mapstructure:"BODY_LIMIT"`
	UploadLimit     string        `mapstructure:"UPLOAD_LIMIT"`
	MarkerCacheSize int           `mapstructure:"MARKER_CACHE_SIZE"`
	MarkerCacheTTL  time.Duration `mapstructure:"MARKER_CACHE_TTL"`
	BlobDriver      string        `mapstructure:"BLOB_DRIVER"`
	BlobS3Bucket    string        `mapstructure:"BLOB_S3_BUCKET"`
	BlobS3Region    string        `mapstructure:"BLOB_S3_REGION"`
	BlobS3Endpoint  string        `mapstructure:"BLOB_S3_ENDPOINT"`
	BlobS3PathStyle bool          `mapstructure:"BLOB_S3_PATH_STYLE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "4000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("TOKEN_TTL", "8h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("UPLOAD_LIMIT", "20M")
	v.SetDefault("MARKER_CACHE_SIZE", 512)
	v.SetDefault("MARKER_CACHE_TTL", "10m")
	v.SetDefault("BLOB_DRIVER", "memory")
	v.SetDefault("BLOB_S3_REGION", "us-east-1")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "TOKEN_TTL", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"REQUEST_TIMEOUT", "BODY_LIMIT", "UPLOAD_LIMIT", "MARKER_CACHE_SIZE", "MARKER_CACHE_TTL",
		"BLOB_DRIVER", "BLOB_S3_BUCKET", "BLOB_S3_REGION", "BLOB_S3_ENDPOINT", "BLOB_S3_PATH_STYLE",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil || (len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",")) {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set; using the built-in development secret.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required outside development (current ENV=%q)", c.Env)
	}
	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET must not be the development secret in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}

	switch c.BlobDriver {
	case "memory":
		if c.IsProduction() {
			return fmt.Errorf("BLOB_DRIVER=memory is not allowed in production")
		}
	case "s3":
		if c.BlobS3Bucket == "" {
			return fmt.Errorf("BLOB_S3_BUCKET is required when BLOB_DRIVER is \"s3\"")
		}
	default:
		return fmt.Errorf("BLOB_DRIVER must be \"memory\" or \"s3\", got %q", c.BlobDriver)
	}

	return nil
}
