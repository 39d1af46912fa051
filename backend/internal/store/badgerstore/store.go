// Package badgerstore persists users and posts as JSON documents in an
// embedded BadgerDB.
//
// Two post layouts are supported:
//
//	standalone  post/<id>       one document per post
//	embedded    feed/<author>   one document per author holding all their
//	                            posts, with postidx/<id> -> author
//
// Users always live at user/<id> with username/<name> and email/<addr>
// indexes. Every
// document carries a version; writes compare it inside a badger transaction
// and badger's own conflict detection covers concurrent transactions.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
	"circle-media/backend/pkg/logger"
)

// Post layouts
const (
	ShapeStandalone = "standalone"
	ShapeEmbedded   = "embedded"
)

const (
	prefixUser     = "user/"
	prefixUsername = "username/"
	prefixEmail    = "email/"
	prefixPost     = "post/"
	prefixFeed     = "feed/"
	prefixPostIdx  = "postidx/"
)

// Config holds configuration for a badger-backed store
type Config struct {
	// Path is the database directory; ignored when InMemory is set
	Path       string
	InMemory   bool
	SyncWrites bool
	Shape      string
}

// InMemoryConfig returns a test configuration for the given shape
func InMemoryConfig(shape string) Config {
	return Config{InMemory: true, Shape: shape}
}

// Store is a social.Store over BadgerDB
type Store struct {
	db     *badger.DB
	shape  string
	logger *zap.Logger
}

// Open opens (or creates) the database described by cfg
func Open(cfg Config) (*Store, error) {
	if cfg.Shape == "" {
		cfg.Shape = ShapeStandalone
	}
	if cfg.Shape != ShapeStandalone && cfg.Shape != ShapeEmbedded {
		return nil, fmt.Errorf("unknown post shape %q", cfg.Shape)
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	log := logger.Named("badgerstore")

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{log.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	log.Info("Badger store opened",
		zap.String("path", cfg.Path),
		zap.Bool("in_memory", cfg.InMemory),
		zap.String("shape", cfg.Shape),
	)
	return &Store{db: db, shape: cfg.Shape, logger: log}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Shape reports the post layout in use
func (s *Store) Shape() string {
	return s.shape
}

// ============================================================================
// Users
// ============================================================================

// CreateUser inserts u and claims its username and email
func (s *Store) CreateUser(ctx context.Context, u *social.User) error {
	err := s.update(func(txn *badger.Txn) error {
		if exists(txn, prefixUser+u.ID) {
			return fmt.Errorf("user %s: %w", u.ID, apperrors.ErrAlreadyExists)
		}
		if exists(txn, prefixUsername+u.Username) {
			return fmt.Errorf("username %q: %w", u.Username, apperrors.ErrAlreadyExists)
		}
		if exists(txn, prefixEmail+u.Email) {
			return fmt.Errorf("email %q: %w", u.Email, apperrors.ErrAlreadyExists)
		}
		doc := u.Clone()
		doc.Version = 1
		if err := putJSON(txn, prefixUser+u.ID, doc); err != nil {
			return err
		}
		if err := txn.Set([]byte(prefixUsername+u.Username), []byte(u.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(prefixEmail+u.Email), []byte(u.ID))
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.Version = 1
	return nil
}

// GetUser loads a user by id
func (s *Store) GetUser(ctx context.Context, id string) (*social.User, error) {
	var u social.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixUser+id, &u)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NewNotFound(apperrors.KindUser, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// GetUserByUsername resolves the username index then loads the user
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*social.User, error) {
	var u social.User
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := getString(txn, prefixUsername+username)
		if err != nil {
			return err
		}
		return getJSON(txn, prefixUser+id, &u)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NewNotFound(apperrors.KindUser, username)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}
	return &u, nil
}

// FindUsers scans user documents
func (s *Store) FindUsers(ctx context.Context, filter social.UserFilter) ([]*social.User, error) {
	var out []*social.User
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, prefixUser, func(val []byte) error {
			var u social.User
			if err := json.Unmarshal(val, &u); err != nil {
				return err
			}
			if filter.Match(&u) {
				out = append(out, &u)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedOn.Equal(out[j].JoinedOn) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedOn.Before(out[j].JoinedOn)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// SaveUser writes u if its version matches the stored document
func (s *Store) SaveUser(ctx context.Context, u *social.User) error {
	err := s.update(func(txn *badger.Txn) error {
		var stored social.User
		if err := getJSON(txn, prefixUser+u.ID, &stored); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NewNotFound(apperrors.KindUser, u.ID)
			}
			return err
		}
		if stored.Version != u.Version {
			return fmt.Errorf("user %s at version %d (stored %d): %w", u.ID, u.Version, stored.Version, apperrors.ErrWriteConflict)
		}
		doc := u.Clone()
		doc.Version++
		return putJSON(txn, prefixUser+u.ID, doc)
	})
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	u.Version++
	return nil
}

// DeleteUser removes the user document and its username claim
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	err := s.update(func(txn *badger.Txn) error {
		var stored social.User
		if err := getJSON(txn, prefixUser+id, &stored); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NewNotFound(apperrors.KindUser, id)
			}
			return err
		}
		if err := txn.Delete([]byte(prefixUsername + stored.Username)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(prefixEmail + stored.Email)); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixUser + id))
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

// update runs fn in a read-write transaction and maps badger's transaction
// conflict onto the store-level sentinel
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	err := s.db.Update(fn)
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%v: %w", err, apperrors.ErrWriteConflict)
	}
	return err
}

func exists(txn *badger.Txn, key string) bool {
	_, err := txn.Get([]byte(key))
	return err == nil
}

func getJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func getString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func putJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func scan(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// badgerLogger adapts zap to badger's Logger interface
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
