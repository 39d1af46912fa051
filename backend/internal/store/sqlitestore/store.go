// Package sqlitestore persists users and posts in SQLite. Each aggregate is a
// JSON body in its own row next to the columns queries need: username, join
// date, author and creation time, plus a follower side table so FollowedBy
// lookups do not scan every user.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
	"circle-media/backend/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Store is a social.Store over SQLite
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates or opens the database at path and applies the schema.
// The connection is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log := logger.Named("sqlitestore")
	log.Info("SQLite store opened", zap.String("path", path))
	return &Store{db: db, logger: log}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ============================================================================
// Users
// ============================================================================

// CreateUser inserts u; the UNIQUE username and email columns reject clashes
func (s *Store) CreateUser(ctx context.Context, u *social.User) error {
	doc := u.Clone()
	doc.Version = 1
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("create user: marshal: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, email, joined_on, version, body) VALUES (?, ?, ?, ?, ?, ?)`,
			u.ID, u.Username, u.Email, formatTime(u.JoinedOn), 1, string(body))
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("user %s / %q / %q: %w", u.ID, u.Username, u.Email, apperrors.ErrAlreadyExists)
			}
			return err
		}
		return replaceFollowers(ctx, tx, u.ID, u.Followers)
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.Version = 1
	return nil
}

// GetUser loads a user by id
func (s *Store) GetUser(ctx context.Context, id string) (*social.User, error) {
	return s.queryUser(ctx, id, `SELECT body FROM users WHERE id = ?`, id)
}

// GetUserByUsername loads a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*social.User, error) {
	return s.queryUser(ctx, username, `SELECT body FROM users WHERE username = ?`, username)
}

func (s *Store) queryUser(ctx context.Context, ref, query string, arg string) (*social.User, error) {
	var body string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound(apperrors.KindUser, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", ref, err)
	}
	var u social.User
	if err := json.Unmarshal([]byte(body), &u); err != nil {
		return nil, fmt.Errorf("get user %s: unmarshal: %w", ref, err)
	}
	return &u, nil
}

// FindUsers filters on the indexed columns
func (s *Store) FindUsers(ctx context.Context, filter social.UserFilter) ([]*social.User, error) {
	var (
		where []string
		args  []any
	)
	if filter.Username != "" {
		where = append(where, "u.username = ?")
		args = append(args, filter.Username)
	}
	if filter.FollowedBy != "" {
		where = append(where, "EXISTS (SELECT 1 FROM user_followers f WHERE f.user_id = u.id AND f.follower_id = ?)")
		args = append(args, filter.FollowedBy)
	}

	query := "SELECT u.body FROM users u"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY u.joined_on ASC, u.id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()

	var out []*social.User
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("find users: scan: %w", err)
		}
		var u social.User
		if err := json.Unmarshal([]byte(body), &u); err != nil {
			return nil, fmt.Errorf("find users: unmarshal: %w", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return out, nil
}

// SaveUser updates u when the stored version matches
func (s *Store) SaveUser(ctx context.Context, u *social.User) error {
	doc := u.Clone()
	doc.Version = u.Version + 1
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("save user: marshal: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET body = ?, version = version + 1 WHERE id = ? AND version = ?`,
			string(body), u.ID, u.Version)
		if err != nil {
			return err
		}
		if err := checkVersioned(ctx, tx, res, "users", apperrors.KindUser, u.ID, u.Version); err != nil {
			return err
		}
		return replaceFollowers(ctx, tx, u.ID, u.Followers)
	})
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	u.Version++
	return nil
}

// DeleteUser removes the user row; follower rows cascade
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFound(apperrors.KindUser, id)
	}
	return nil
}

func replaceFollowers(ctx context.Context, tx *sql.Tx, userID string, followers []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_followers WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear followers: %w", err)
	}
	for _, f := range followers {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_followers (user_id, follower_id) VALUES (?, ?)`, userID, f); err != nil {
			return fmt.Errorf("insert follower: %w", err)
		}
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// checkVersioned turns a zero-row versioned UPDATE into NotFound or a
// write conflict
func checkVersioned(ctx context.Context, tx *sql.Tx, res sql.Result, table, kind, id string, version int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var stored int64
	err = tx.QueryRowContext(ctx, "SELECT version FROM "+table+" WHERE id = ?", id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFound(kind, id)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%s %s at version %d (stored %d): %w", kind, id, version, stored, apperrors.ErrWriteConflict)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// timeLayout is fixed width so stored timestamps sort lexically in time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
