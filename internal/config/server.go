// Package config provides configuration management for subdash.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// Store drivers.
const (
	StoreSQLite    = "sqlite"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
)

// Upload drivers.
const (
	UploadLocal = "local"
	UploadS3    = "s3"
)

// S3Config holds object storage settings for uploads.
type S3Config struct {
	Endpoint        string
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// ServerConfig holds server-level configuration loaded from environment variables.
type ServerConfig struct {
	Environment Environment
	ListenAddr  string

	StoreDriver             string
	DatabaseURL             string
	SQLitePath              string
	FirestoreProjectID      string
	FirebaseCredentialsFile string
	RedisURL                string
	SeedDefaultPackages     bool

	UploadDriver   string
	UploadDir      string
	MaxUploadBytes int64
	S3             S3Config

	KafkaBrokers []string
	KafkaTopic   string

	StatusRefreshSchedule string

	CORSOrigins       []string
	RateLimitRequests int64
	RateLimitPeriod   string
}

// LoadServerConfig reads server configuration from environment variables.
func LoadServerConfig() ServerConfig {
	env := Environment(os.Getenv("ENV"))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		env = EnvDevelopment
	}

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":" + getEnv("PORT", "8080")
	}

	rateLimitRequests := getEnvInt64("RATE_LIMIT_REQUESTS", 100)
	if rateLimitRequests <= 0 {
		rateLimitRequests = 100
	}

	maxUpload := getEnvInt64("MAX_UPLOAD_BYTES", 10<<20)
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}

	return ServerConfig{
		Environment: env,
		ListenAddr:  listenAddr,

		StoreDriver:             strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		SQLitePath:              getEnv("SQLITE_PATH", "data/subdash.db"),
		FirestoreProjectID:      os.Getenv("FIRESTORE_PROJECT_ID"),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		RedisURL:                os.Getenv("REDIS_URL"),
		SeedDefaultPackages:     getEnvBool("SEED_DEFAULT_PACKAGES", true),

		UploadDriver:   strings.ToLower(getEnv("UPLOAD_DRIVER", UploadLocal)),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: maxUpload,
		S3: S3Config{
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			Bucket:          os.Getenv("S3_BUCKET"),
			Prefix:          os.Getenv("S3_PREFIX"),
			Region:          os.Getenv("S3_REGION"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "subdash.changes"),

		StatusRefreshSchedule: os.Getenv("STATUS_REFRESH_SCHEDULE"),

		CORSOrigins:       getEnvList("CORS_ORIGINS"),
		RateLimitRequests: rateLimitRequests,
		RateLimitPeriod:   getEnv("RATE_LIMIT_PERIOD", "1m"),
	}
}

// Validate checks that the selected drivers have the settings they need.
func (c ServerConfig) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.UploadDriver {
	case UploadLocal:
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required for local uploads"))
		}
	case UploadS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for s3 uploads"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown UPLOAD_DRIVER %q", c.UploadDriver))
	}

	if _, err := time.ParseDuration(c.RateLimitPeriod); err != nil {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_PERIOD %q", c.RateLimitPeriod))
	}

	if c.Environment == EnvProduction && len(c.CORSOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ORIGINS must be set in production"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvBool reads a boolean from an environment variable, returning the default if unset or invalid.
func getEnvBool(key string, defaultVal bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultVal
	}
}

// getEnvInt64 reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt64(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}
