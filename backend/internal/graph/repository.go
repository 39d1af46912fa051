// Package graph stores the social graph in Neo4j. Users and posts are nodes;
// AUTHORED edges link authors to their posts. Relationship sets stay list
// properties on the node so a save rewrites one record, which keeps the
// optimistic version check on a single node.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "circle-media/backend/pkg/errors"
	"circle-media/backend/pkg/logger"
)

// Config holds the connection settings
type Config struct {
	URI      string
	User     string
	Password string
}

// Repository handles all Neo4j database operations and implements social.Store
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Named("graph"),
	}
}

// Open connects to Neo4j, verifies connectivity and ensures constraints
func Open(ctx context.Context, cfg Config) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	repo := NewRepository(driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	repo.logger.Info("Connected to Neo4j", zap.String("uri", cfg.URI))
	return repo, nil
}

// EnsureSchema creates the uniqueness constraints the store relies on
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
		`CREATE CONSTRAINT user_username IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE`,
		`CREATE CONSTRAINT user_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE`,
		`CREATE CONSTRAINT post_id IF NOT EXISTS FOR (p:Post) REQUIRE p.id IS UNIQUE`,
		`CREATE INDEX post_author IF NOT EXISTS FOR (p:Post) ON (p.author_id)`,
	}
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// checkVersion runs inside a write transaction after a versioned SET matched
// nothing, and reports whether the node is missing or stale
func checkVersion(ctx context.Context, tx neo4j.ManagedTransaction, label, kind, id string, version int64) error {
	result, err := tx.Run(ctx, "MATCH (n:"+label+" {id: $id}) RETURN n.version AS version", map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return err
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return err
		}
		return apperrors.NewNotFound(kind, id)
	}
	stored := getInt64FromRecord(result.Record(), "version")
	return fmt.Errorf("%s %s at version %d (stored %d): %w", kind, id, version, stored, apperrors.ErrWriteConflict)
}

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

func isConstraintViolation(err error) bool {
	var nerr *neo4j.Neo4jError
	return errors.As(err, &nerr) && nerr.Code == constraintViolation
}
