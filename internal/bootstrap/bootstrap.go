// Package bootstrap builds the configured store, upload and event sink
// implementations shared by the server and the admin CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/activity"
	"github.com/MacJediWizard/subdash/internal/config"
	"github.com/MacJediWizard/subdash/internal/db"
	"github.com/MacJediWizard/subdash/internal/store"
	"github.com/MacJediWizard/subdash/internal/store/cache"
	"github.com/MacJediWizard/subdash/internal/store/firestore"
	"github.com/MacJediWizard/subdash/internal/store/sqlite"
	"github.com/MacJediWizard/subdash/internal/uploads"
)

// Stores holds the opened persistence layer.
type Stores struct {
	// Store is the store services use, cache wrapped when Redis is configured.
	Store store.Store
	// Postgres is set for the postgres driver so callers can migrate.
	Postgres *db.DB
	// Redis is set when REDIS_URL is configured.
	Redis *cache.RedisCache

	closers []func() error
}

// Close releases every connection opened by OpenStores.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenStores opens the store selected by cfg.StoreDriver. Postgres schemas are
// migrated when migrate is true.
func OpenStores(ctx context.Context, cfg config.ServerConfig, migrate bool, logger zerolog.Logger) (*Stores, error) {
	s := &Stores{}

	switch cfg.StoreDriver {
	case config.StoreSQLite:
		st, err := sqlite.New(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		s.Store = st
		s.closers = append(s.closers, st.Close)

	case config.StorePostgres:
		database, err := db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, database.Close)
		if migrate {
			if err := database.Migrate(ctx); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		s.Store = database
		s.Postgres = database

	case config.StoreFirestore:
		st, err := firestore.New(ctx, firestore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirebaseCredentialsFile,
		}, logger)
		if err != nil {
			return nil, err
		}
		s.Store = st
		s.closers = append(s.closers, st.Close)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Redis = rc
		s.closers = append(s.closers, rc.Close)
		s.Store = cache.New(s.Store, rc, cache.DefaultTTL, logger)
	}

	logger.Info().
		Str("driver", cfg.StoreDriver).
		Bool("cached", s.Redis != nil).
		Msg("store opened")
	return s, nil
}

// OpenUploads returns the upload store selected by cfg.UploadDriver.
func OpenUploads(ctx context.Context, cfg config.ServerConfig, logger zerolog.Logger) (uploads.Store, error) {
	switch cfg.UploadDriver {
	case config.UploadLocal:
		return uploads.NewLocalStore(cfg.UploadDir, logger)
	case config.UploadS3:
		return uploads.NewS3Store(ctx, uploads.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown upload driver %q", cfg.UploadDriver)
	}
}

// OpenKafkaSink connects the change sink when brokers are configured. It
// returns nil without brokers.
func OpenKafkaSink(cfg config.ServerConfig, logger zerolog.Logger) (*activity.KafkaSink, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, nil
	}
	return activity.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
}
