package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FileConfig is the YAML form of the settings the admin CLI needs.
type FileConfig struct {
	Environment string `yaml:"environment,omitempty"`
	Store       struct {
		Driver                  string `yaml:"driver,omitempty"`
		DatabaseURL             string `yaml:"database_url,omitempty"`
		SQLitePath              string `yaml:"sqlite_path,omitempty"`
		FirestoreProjectID      string `yaml:"firestore_project_id,omitempty"`
		FirebaseCredentialsFile string `yaml:"firebase_credentials_file,omitempty"`
		RedisURL                string `yaml:"redis_url,omitempty"`
	} `yaml:"store"`
	Kafka struct {
		Brokers []string `yaml:"brokers,omitempty"`
		Topic   string   `yaml:"topic,omitempty"`
	} `yaml:"kafka"`
	StatusRefreshSchedule string `yaml:"status_refresh_schedule,omitempty"`
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &fc, nil
}

// Apply overlays the values set in the file onto cfg. Values present in the
// file take precedence over the environment.
func (fc *FileConfig) Apply(cfg *ServerConfig) {
	switch env := Environment(fc.Environment); env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		cfg.Environment = env
	}
	setString(&cfg.StoreDriver, fc.Store.Driver)
	setString(&cfg.DatabaseURL, fc.Store.DatabaseURL)
	setString(&cfg.SQLitePath, fc.Store.SQLitePath)
	setString(&cfg.FirestoreProjectID, fc.Store.FirestoreProjectID)
	setString(&cfg.FirebaseCredentialsFile, fc.Store.FirebaseCredentialsFile)
	setString(&cfg.RedisURL, fc.Store.RedisURL)
	if len(fc.Kafka.Brokers) > 0 {
		cfg.KafkaBrokers = fc.Kafka.Brokers
	}
	setString(&cfg.KafkaTopic, fc.Kafka.Topic)
	setString(&cfg.StatusRefreshSchedule, fc.StatusRefreshSchedule)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
