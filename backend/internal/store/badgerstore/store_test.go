package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circle-media/backend/internal/social"
	"circle-media/backend/internal/store/storetest"
)

func openTestStore(t *testing.T, shape string) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig(shape))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStandaloneContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) social.Store { return openTestStore(t, ShapeStandalone) })
}

func TestEmbeddedContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) social.Store { return openTestStore(t, ShapeEmbedded) })
}

func TestEmbedded_PersistRewritesOwnerFeed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, ShapeEmbedded)
	require.NoError(t, s.CreatePost(ctx, storetest.NewPost("p1", "u1", 0)))
	require.NoError(t, s.CreatePost(ctx, storetest.NewPost("p2", "u1", 1)))

	h, err := s.LocatePost(ctx, "p1")
	require.NoError(t, err)
	eh, ok := h.(*embeddedHandle)
	require.True(t, ok)
	before := eh.feedVersion

	social.Toggle(&h.Post().LikedBy, "u5")
	require.NoError(t, h.Persist(ctx))

	// the owner document moved forward, so a handle on the sibling taken
	// before the write is now stale
	assert.Equal(t, before+1, eh.feedVersion)

	stale := &embeddedHandle{store: s, authorID: "u1", feedVersion: before, post: storetest.NewPost("p2", "u1", 1)}
	assert.Error(t, stale.Persist(ctx))
}

func TestOpen_RejectsUnknownShape(t *testing.T) {
	_, err := Open(Config{InMemory: true, Shape: "sharded"})
	assert.Error(t, err)
}

func TestOpen_OnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(Config{Path: dir, Shape: ShapeStandalone})
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(ctx, storetest.NewUser("u1", "ada")))
	require.NoError(t, s.Close())

	reopened, err := Open(Config{Path: dir, Shape: ShapeStandalone})
	require.NoError(t, err)
	defer reopened.Close()

	u, err := reopened.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)
}
