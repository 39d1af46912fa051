package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

// CreatePost inserts p with version 1
func (s *Store) CreatePost(ctx context.Context, p *social.Post) error {
	doc := p.Clone()
	doc.Version = 1
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("create post: marshal: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, created_at, version, body) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.AuthorID, formatTime(p.CreatedAt), 1, string(body))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create post %s: %w", p.ID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("create post %s: %w", p.ID, err)
	}
	p.Version = 1
	return nil
}

// LocatePost loads the post row; the row is its own owner
func (s *Store) LocatePost(ctx context.Context, postID string) (social.PostHandle, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM posts WHERE id = ?`, postID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound(apperrors.KindPost, postID)
	}
	if err != nil {
		return nil, fmt.Errorf("locate post %s: %w", postID, err)
	}

	var p social.Post
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("locate post %s: unmarshal: %w", postID, err)
	}
	return &postHandle{store: s, post: &p}, nil
}

// FindPosts returns matching posts newest first
func (s *Store) FindPosts(ctx context.Context, filter social.PostFilter) ([]*social.Post, error) {
	query := `SELECT body FROM posts`
	var args []any
	if filter.AuthorID != "" {
		query += ` WHERE author_id = ?`
		args = append(args, filter.AuthorID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer rows.Close()

	var out []*social.Post
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("find posts: scan: %w", err)
		}
		var p social.Post
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, fmt.Errorf("find posts: unmarshal: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	return out, nil
}

type postHandle struct {
	store *Store
	post  *social.Post
}

func (h *postHandle) Post() *social.Post { return h.post }

func (h *postHandle) Persist(ctx context.Context) error {
	p := h.post
	doc := p.Clone()
	doc.Version = p.Version + 1
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("persist post: marshal: %w", err)
	}

	err = h.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE posts SET body = ?, version = version + 1 WHERE id = ? AND version = ?`,
			string(body), p.ID, p.Version)
		if err != nil {
			return err
		}
		return checkVersioned(ctx, tx, res, "posts", apperrors.KindPost, p.ID, p.Version)
	})
	if err != nil {
		return fmt.Errorf("persist post: %w", err)
	}
	p.Version++
	return nil
}

func (h *postHandle) Remove(ctx context.Context) error {
	res, err := h.store.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, h.post.ID)
	if err != nil {
		return fmt.Errorf("remove post %s: %w", h.post.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFound(apperrors.KindPost, h.post.ID)
	}
	return nil
}
