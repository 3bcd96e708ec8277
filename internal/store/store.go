// Package store selects the DocumentStore backend named in configuration.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docflow/internal/config"
	"docflow/internal/port"
	"docflow/internal/store/httpstore"
	"docflow/internal/store/postgres"
	s3store "docflow/internal/store/s3"
	"docflow/internal/store/simulated"
)

// Backend is a configured DocumentStore plus the cleanup it needs.
type Backend struct {
	Store port.DocumentStore
	Name  string
	close func() error
}

// Close releases resources held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// New builds the backend selected by cfg.Store.Backend.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	name := cfg.Store.Backend
	switch name {
	case config.StoreBackendSimulated, "":
		return &Backend{Name: config.StoreBackendSimulated, Store: simulated.NewStore(cfg.Store.SimulatedDelay)}, nil

	case config.StoreBackendHTTP:
		logger.Info("using http document store", zap.String("endpoint", cfg.Store.Endpoint))
		return &Backend{Name: name, Store: httpstore.NewStore(&cfg.Store)}, nil

	case config.StoreBackendS3:
		storage, err := s3store.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("store.New: %w", err)
		}
		logger.Info("using s3 document store", zap.String("bucket", cfg.S3.Bucket))
		return &Backend{Name: name, Store: s3store.NewDocumentStore(storage, cfg.S3.Bucket, cfg.S3.Prefix)}, nil

	case config.StoreBackendPostgres:
		db, err := postgres.NewDB(ctx, &cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("store.New: %w", err)
		}
		logger.Info("using postgres document store", zap.String("host", cfg.DB.Host))
		return &Backend{Name: name, Store: postgres.NewReviewedDocumentRepo(db), close: db.Close}, nil
	}
	return nil, fmt.Errorf("store.New: unknown backend %q", name)
}
