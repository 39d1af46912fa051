// Package memory keeps users and posts in process memory. It backs the
// development server and the engine tests; posts use the one-document-per-post
// shape.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

// Store is a mutex-guarded social.Store
type Store struct {
	mu     sync.RWMutex
	users  map[string]*social.User
	byName  map[string]string
	byEmail map[string]string
	posts   map[string]*social.Post
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:   make(map[string]*social.User),
		byName:  make(map[string]string),
		byEmail: make(map[string]string),
		posts:   make(map[string]*social.Post),
	}
}

// Close is a no-op
func (s *Store) Close() error { return nil }

// CreateUser inserts a user with version 1
func (s *Store) CreateUser(ctx context.Context, u *social.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("create user %s: %w", u.ID, apperrors.ErrAlreadyExists)
	}
	if _, ok := s.byName[u.Username]; ok {
		return fmt.Errorf("create user %s: username %q: %w", u.ID, u.Username, apperrors.ErrAlreadyExists)
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return fmt.Errorf("create user %s: email %q: %w", u.ID, u.Email, apperrors.ErrAlreadyExists)
	}

	u.Version = 1
	s.users[u.ID] = u.Clone()
	s.byName[u.Username] = u.ID
	s.byEmail[u.Email] = u.ID
	return nil
}

// GetUser returns a copy of the user
func (s *Store) GetUser(ctx context.Context, id string) (*social.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFound(apperrors.KindUser, id)
	}
	return u.Clone(), nil
}

// GetUserByUsername resolves a username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*social.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return nil, apperrors.NewNotFound(apperrors.KindUser, username)
	}
	return s.users[id].Clone(), nil
}

// FindUsers returns matching users ordered by join date
func (s *Store) FindUsers(ctx context.Context, filter social.UserFilter) ([]*social.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*social.User
	for _, u := range s.users {
		if filter.Match(u) {
			out = append(out, u.Clone())
		}
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

// SaveUser replaces the stored user if versions match
func (s *Store) SaveUser(ctx context.Context, u *social.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[u.ID]
	if !ok {
		return apperrors.NewNotFound(apperrors.KindUser, u.ID)
	}
	if stored.Version != u.Version {
		return fmt.Errorf("save user %s at version %d (stored %d): %w", u.ID, u.Version, stored.Version, apperrors.ErrWriteConflict)
	}

	u.Version++
	s.users[u.ID] = u.Clone()
	return nil
}

// DeleteUser removes the user record
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperrors.NewNotFound(apperrors.KindUser, id)
	}
	delete(s.byName, u.Username)
	delete(s.byEmail, u.Email)
	delete(s.users, id)
	return nil
}

// CreatePost inserts a post with version 1
func (s *Store) CreatePost(ctx context.Context, p *social.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[p.ID]; ok {
		return fmt.Errorf("create post %s: %w", p.ID, apperrors.ErrAlreadyExists)
	}
	p.Version = 1
	s.posts[p.ID] = p.Clone()
	return nil
}

// LocatePost returns a handle on a copy of the post
func (s *Store) LocatePost(ctx context.Context, postID string) (social.PostHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, apperrors.NewNotFound(apperrors.KindPost, postID)
	}
	return &postHandle{store: s, post: p.Clone()}, nil
}

// FindPosts returns matching posts newest first
func (s *Store) FindPosts(ctx context.Context, filter social.PostFilter) ([]*social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*social.Post
	for _, p := range s.posts {
		if filter.Match(p) {
			out = append(out, p.Clone())
		}
	}
	sortNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type postHandle struct {
	store *Store
	post  *social.Post
}

func (h *postHandle) Post() *social.Post { return h.post }

func (h *postHandle) Persist(ctx context.Context) error {
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[h.post.ID]
	if !ok {
		return apperrors.NewNotFound(apperrors.KindPost, h.post.ID)
	}
	if stored.Version != h.post.Version {
		return fmt.Errorf("save post %s at version %d (stored %d): %w", h.post.ID, h.post.Version, stored.Version, apperrors.ErrWriteConflict)
	}
	h.post.Version++
	s.posts[h.post.ID] = h.post.Clone()
	return nil
}

func (h *postHandle) Remove(ctx context.Context) error {
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[h.post.ID]; !ok {
		return apperrors.NewNotFound(apperrors.KindPost, h.post.ID)
	}
	delete(s.posts, h.post.ID)
	return nil
}

func sortNewestFirst(posts []*social.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
