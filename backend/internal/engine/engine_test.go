package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"circle-media/backend/internal/social"
	"circle-media/backend/internal/store/memory"
	"circle-media/backend/internal/store/storetest"
)

var testNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// newTestEngine returns an engine over a fresh memory store with a fixed
// clock and sequential ids
func newTestEngine(t *testing.T, store social.Store) *Engine {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	var (
		mu  sync.Mutex
		seq int
	)
	return New(store,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
}

// seedUsers creates users whose id equals their username
func seedUsers(t *testing.T, s social.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.CreateUser(context.Background(), storetest.NewUser(id, "user"+id)))
	}
}

func seedPost(t *testing.T, s social.Store, id, authorID string) {
	t.Helper()
	require.NoError(t, s.CreatePost(context.Background(), storetest.NewPost(id, authorID, 0)))
}

func mustUser(t *testing.T, s social.Store, id string) *social.User {
	t.Helper()
	u, err := s.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

var errDiskFull = errors.New("disk full")

// failingStore fails SaveUser for selected ids
type failingStore struct {
	social.Store
	mu       sync.Mutex
	failSave map[string]error
}

func newFailingStore(inner social.Store) *failingStore {
	return &failingStore{Store: inner, failSave: make(map[string]error)}
}

func (s *failingStore) failSaveOf(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave[id] = err
}

func (s *failingStore) heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = make(map[string]error)
}

func (s *failingStore) SaveUser(ctx context.Context, u *social.User) error {
	s.mu.Lock()
	err := s.failSave[u.ID]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.SaveUser(ctx, u)
}
