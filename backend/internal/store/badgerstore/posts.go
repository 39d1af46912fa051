package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

// feedDoc is the per-author document of the embedded layout
type feedDoc struct {
	AuthorID string         `json:"userId"`
	Version  int64          `json:"version"`
	Posts    []*social.Post `json:"posts"`
}

func (f *feedDoc) index(postID string) int {
	for i, p := range f.Posts {
		if p.ID == postID {
			return i
		}
	}
	return -1
}

// CreatePost stores p in the configured layout
func (s *Store) CreatePost(ctx context.Context, p *social.Post) error {
	var version int64
	err := s.update(func(txn *badger.Txn) error {
		if s.shape == ShapeStandalone {
			if exists(txn, prefixPost+p.ID) {
				return fmt.Errorf("post %s: %w", p.ID, apperrors.ErrAlreadyExists)
			}
			doc := p.Clone()
			doc.Version = 1
			version = 1
			return putJSON(txn, prefixPost+p.ID, doc)
		}

		if exists(txn, prefixPostIdx+p.ID) {
			return fmt.Errorf("post %s: %w", p.ID, apperrors.ErrAlreadyExists)
		}
		feed, err := loadFeed(txn, p.AuthorID)
		if err != nil {
			return err
		}
		feed.Version++
		doc := p.Clone()
		doc.Version = feed.Version
		feed.Posts = append(feed.Posts, doc)
		if err := putJSON(txn, prefixFeed+p.AuthorID, feed); err != nil {
			return err
		}
		version = feed.Version
		return txn.Set([]byte(prefixPostIdx+p.ID), []byte(p.AuthorID))
	})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	p.Version = version
	return nil
}

// LocatePost returns a handle bound to the record that owns the post
func (s *Store) LocatePost(ctx context.Context, postID string) (social.PostHandle, error) {
	if s.shape == ShapeStandalone {
		var p social.Post
		err := s.db.View(func(txn *badger.Txn) error {
			return getJSON(txn, prefixPost+postID, &p)
		})
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, apperrors.NewNotFound(apperrors.KindPost, postID)
		}
		if err != nil {
			return nil, fmt.Errorf("locate post %s: %w", postID, err)
		}
		return &standaloneHandle{store: s, post: &p}, nil
	}

	var (
		post *social.Post
		feed *feedDoc
	)
	err := s.db.View(func(txn *badger.Txn) error {
		authorID, err := getString(txn, prefixPostIdx+postID)
		if err != nil {
			return err
		}
		feed, err = loadFeed(txn, authorID)
		if err != nil {
			return err
		}
		i := feed.index(postID)
		if i < 0 {
			return badger.ErrKeyNotFound
		}
		post = feed.Posts[i]
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NewNotFound(apperrors.KindPost, postID)
	}
	if err != nil {
		return nil, fmt.Errorf("locate post %s: %w", postID, err)
	}
	return &embeddedHandle{store: s, authorID: feed.AuthorID, feedVersion: feed.Version, post: post}, nil
}

// FindPosts returns matching posts newest first
func (s *Store) FindPosts(ctx context.Context, filter social.PostFilter) ([]*social.Post, error) {
	var out []*social.Post
	err := s.db.View(func(txn *badger.Txn) error {
		if s.shape == ShapeStandalone {
			return scan(txn, prefixPost, func(val []byte) error {
				var p social.Post
				if err := json.Unmarshal(val, &p); err != nil {
					return err
				}
				if filter.Match(&p) {
					out = append(out, &p)
				}
				return nil
			})
		}

		if filter.AuthorID != "" {
			feed, err := loadFeed(txn, filter.AuthorID)
			if err != nil {
				return err
			}
			out = append(out, feed.Posts...)
			return nil
		}
		return scan(txn, prefixFeed, func(val []byte) error {
			var feed feedDoc
			if err := json.Unmarshal(val, &feed); err != nil {
				return err
			}
			out = append(out, feed.Posts...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// loadFeed returns the author's feed, or an empty one if none exists yet
func loadFeed(txn *badger.Txn, authorID string) (*feedDoc, error) {
	feed := &feedDoc{AuthorID: authorID}
	err := getJSON(txn, prefixFeed+authorID, feed)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return feed, nil
	}
	if err != nil {
		return nil, err
	}
	return feed, nil
}

// ============================================================================
// Handles
// ============================================================================

type standaloneHandle struct {
	store *Store
	post  *social.Post
}

func (h *standaloneHandle) Post() *social.Post { return h.post }

func (h *standaloneHandle) Persist(ctx context.Context) error {
	p := h.post
	err := h.store.update(func(txn *badger.Txn) error {
		var stored social.Post
		if err := getJSON(txn, prefixPost+p.ID, &stored); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.NewNotFound(apperrors.KindPost, p.ID)
			}
			return err
		}
		if stored.Version != p.Version {
			return fmt.Errorf("post %s at version %d (stored %d): %w", p.ID, p.Version, stored.Version, apperrors.ErrWriteConflict)
		}
		doc := p.Clone()
		doc.Version++
		return putJSON(txn, prefixPost+p.ID, doc)
	})
	if err != nil {
		return fmt.Errorf("persist post: %w", err)
	}
	p.Version++
	return nil
}

func (h *standaloneHandle) Remove(ctx context.Context) error {
	id := h.post.ID
	err := h.store.update(func(txn *badger.Txn) error {
		if !exists(txn, prefixPost+id) {
			return apperrors.NewNotFound(apperrors.KindPost, id)
		}
		return txn.Delete([]byte(prefixPost + id))
	})
	if err != nil {
		return fmt.Errorf("remove post: %w", err)
	}
	return nil
}

// embeddedHandle re-saves the whole author feed on every change
type embeddedHandle struct {
	store       *Store
	authorID    string
	feedVersion int64
	post        *social.Post
}

func (h *embeddedHandle) Post() *social.Post { return h.post }

func (h *embeddedHandle) Persist(ctx context.Context) error {
	var version int64
	err := h.store.update(func(txn *badger.Txn) error {
		feed, err := h.checkedFeed(txn)
		if err != nil {
			return err
		}
		i := feed.index(h.post.ID)
		if i < 0 {
			return apperrors.NewNotFound(apperrors.KindPost, h.post.ID)
		}
		feed.Version++
		doc := h.post.Clone()
		doc.Version = feed.Version
		feed.Posts[i] = doc
		version = feed.Version
		return putJSON(txn, prefixFeed+h.authorID, feed)
	})
	if err != nil {
		return fmt.Errorf("persist feed of %s: %w", h.authorID, err)
	}
	h.feedVersion = version
	h.post.Version = version
	return nil
}

func (h *embeddedHandle) Remove(ctx context.Context) error {
	var version int64
	err := h.store.update(func(txn *badger.Txn) error {
		feed, err := h.checkedFeed(txn)
		if err != nil {
			return err
		}
		i := feed.index(h.post.ID)
		if i < 0 {
			return apperrors.NewNotFound(apperrors.KindPost, h.post.ID)
		}
		feed.Posts = append(feed.Posts[:i], feed.Posts[i+1:]...)
		feed.Version++
		version = feed.Version
		if err := putJSON(txn, prefixFeed+h.authorID, feed); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixPostIdx + h.post.ID))
	})
	if err != nil {
		return fmt.Errorf("remove post from feed of %s: %w", h.authorID, err)
	}
	h.feedVersion = version
	return nil
}

func (h *embeddedHandle) checkedFeed(txn *badger.Txn) (*feedDoc, error) {
	var feed feedDoc
	if err := getJSON(txn, prefixFeed+h.authorID, &feed); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, apperrors.NewNotFound(apperrors.KindPost, h.post.ID)
		}
		return nil, err
	}
	if feed.Version != h.feedVersion {
		return nil, fmt.Errorf("feed %s at version %d (stored %d): %w", h.authorID, h.feedVersion, feed.Version, apperrors.ErrWriteConflict)
	}
	return &feed, nil
}
