// Package engine applies social operations (follows, interactions, replies,
// notifications, profile changes) on top of a social.Store. It holds no
// mutable state of its own: each call loads the records it needs, mutates
// them with the social primitives and saves them back under the store's
// optimistic version check.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
	"circle-media/backend/pkg/logger"
)

// Engine is the entry point for every mutation
type Engine struct {
	store  social.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the wall clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the uuid generator used for new records
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine over store
func New(store social.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: logger.Named("engine"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the underlying adapter to callers that manage its lifetime
func (e *Engine) Store() social.Store {
	return e.store
}

// ============================================================================
// Store access with error translation
// ============================================================================

func (e *Engine) loadUser(ctx context.Context, id string) (*social.User, error) {
	u, err := e.store.GetUser(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound(apperrors.KindUser, id)
		}
		return nil, apperrors.NewPersistenceFailure(apperrors.KindUser, id, "load", err)
	}
	return u, nil
}

func (e *Engine) saveUser(ctx context.Context, u *social.User) error {
	if err := e.store.SaveUser(ctx, u); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound(apperrors.KindUser, u.ID)
		}
		return apperrors.NewPersistenceFailure(apperrors.KindUser, u.ID, "save", err)
	}
	return nil
}

func (e *Engine) locatePost(ctx context.Context, id string) (social.PostHandle, error) {
	h, err := e.store.LocatePost(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound(apperrors.KindPost, id)
		}
		return nil, apperrors.NewPersistenceFailure(apperrors.KindPost, id, "load", err)
	}
	return h, nil
}

func (e *Engine) persistPost(ctx context.Context, h social.PostHandle) error {
	if err := h.Persist(ctx); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound(apperrors.KindPost, h.Post().ID)
		}
		return apperrors.NewPersistenceFailure(apperrors.KindPost, h.Post().ID, "save", err)
	}
	return nil
}

func requireID(operation, field, value string) error {
	if value == "" {
		return apperrors.NewInvalidOperation(operation, field+" is required")
	}
	return nil
}
