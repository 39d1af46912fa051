// Package store selects and opens the social.Store adapter named by config
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"circle-media/backend/internal/graph"
	"circle-media/backend/internal/social"
	"circle-media/backend/internal/store/badgerstore"
	"circle-media/backend/internal/store/memory"
	"circle-media/backend/internal/store/sqlitestore"
	"circle-media/backend/pkg/config"
	"circle-media/backend/pkg/logger"
)

// Open returns the adapter for cfg.StoreBackend
func Open(ctx context.Context, cfg *config.Config) (social.Store, error) {
	log := logger.Named("store")

	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Info("Using in-memory store")
		return memory.New(), nil

	case config.BackendBadger:
		s, err := badgerstore.Open(badgerstore.Config{
			Path:  cfg.BadgerPath,
			Shape: cfg.PostShape,
		})
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil

	case config.BackendSQLite:
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil

	case config.BackendNeo4j:
		repo, err := graph.Open(ctx, graph.Config{
			URI:      cfg.Neo4jURI,
			User:     cfg.Neo4jUser,
			Password: cfg.Neo4jPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("open neo4j store: %w", err)
		}
		return repo, nil
	}

	log.Error("Unknown store backend", zap.String("backend", cfg.StoreBackend))
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
