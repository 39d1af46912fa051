// Package storetest holds the behavioural suite every social.Store adapter
// must pass. Adapter packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) social.Store

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// NewUser builds a user fixture
func NewUser(id, username string) *social.User {
	return &social.User{
		ID:        id,
		FirstName: "First" + id,
		LastName:  "Last" + id,
		Username:  username,
		Email:     username + "@example.com",
		JoinedOn:  base,
	}
}

// NewPost builds a post fixture created offset minutes after the base time
func NewPost(id, authorID string, offset int) *social.Post {
	return &social.Post{
		ID:        id,
		AuthorID:  authorID,
		Content:   "post " + id,
		CreatedAt: base.Add(time.Duration(offset) * time.Minute),
	}
}

// Run executes the suite
func Run(t *testing.T, newStore Factory) {
	t.Run("UserRoundTrip", func(t *testing.T) { testUserRoundTrip(t, newStore(t)) })
	t.Run("DuplicateUsername", func(t *testing.T) { testDuplicateUsername(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("MissingUser", func(t *testing.T) { testMissingUser(t, newStore(t)) })
	t.Run("SaveUserVersioning", func(t *testing.T) { testSaveUserVersioning(t, newStore(t)) })
	t.Run("FindUsers", func(t *testing.T) { testFindUsers(t, newStore(t)) })
	t.Run("DeleteUser", func(t *testing.T) { testDeleteUser(t, newStore(t)) })
	t.Run("PostHandlePersist", func(t *testing.T) { testPostHandlePersist(t, newStore(t)) })
	t.Run("PostHandleConflict", func(t *testing.T) { testPostHandleConflict(t, newStore(t)) })
	t.Run("SiblingPostsIsolated", func(t *testing.T) { testSiblingPostsIsolated(t, newStore(t)) })
	t.Run("FindPosts", func(t *testing.T) { testFindPosts(t, newStore(t)) })
	t.Run("SubSecondOrdering", func(t *testing.T) { testSubSecondOrdering(t, newStore(t)) })
	t.Run("RemovePost", func(t *testing.T) { testRemovePost(t, newStore(t)) })
}

func testUserRoundTrip(t *testing.T, s social.Store) {
	ctx := context.Background()
	u := NewUser("u1", "ada")
	u.Bio = "mathematician"
	u.Notifications = []social.Notification{{ID: "n1", OriginatorUserID: "u2", Type: social.NotificationFollowed, CreatedAt: base}}

	require.NoError(t, s.CreateUser(ctx, u))
	assert.Equal(t, int64(1), u.Version)

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, "mathematician", got.Bio)
	assert.Equal(t, int64(1), got.Version)
	assert.True(t, got.JoinedOn.Equal(base))
	require.Len(t, got.Notifications, 1)
	assert.Equal(t, social.NotificationFollowed, got.Notifications[0].Type)

	byName, err := s.GetUserByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)
}

func testDuplicateUsername(t *testing.T, s social.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "ada")))

	err := s.CreateUser(ctx, NewUser("u2", "ada"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists), "got %v", err)
}

func testDuplicateEmail(t *testing.T, s social.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "ada")))

	other := NewUser("u2", "grace")
	other.Email = "ada@example.com"
	err := s.CreateUser(ctx, other)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists), "got %v", err)

	_, err = s.GetUser(ctx, "u2")
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)
	_, err = s.GetUserByUsername(ctx, "grace")
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)
}

func testMissingUser(t *testing.T, s social.Store) {
	ctx := context.Background()

	_, err := s.GetUser(ctx, "nobody")
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	_, err = s.LocatePost(ctx, "nothing")
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)
}

func testSaveUserVersioning(t *testing.T, s social.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "ada")))

	first, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	stale, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)

	first.Following = []string{"u2"}
	require.NoError(t, s.SaveUser(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	stale.Bio = "lost update"
	err = s.SaveUser(ctx, stale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrWriteConflict), "got %v", err)

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, got.Following)
	assert.Empty(t, got.Bio)
	assert.Equal(t, int64(2), got.Version)
}

func testFindUsers(t *testing.T, s social.Store) {
	ctx := context.Background()
	a := NewUser("a", "alice")
	b := NewUser("b", "bob")
	b.Followers = []string{"a"}
	c := NewUser("c", "carol")
	c.Followers = []string{"a", "b"}
	for _, u := range []*social.User{a, b, c} {
		require.NoError(t, s.CreateUser(ctx, u))
	}

	all, err := s.FindUsers(ctx, social.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	followedByA, err := s.FindUsers(ctx, social.UserFilter{FollowedBy: "a"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids(followedByA))

	named, err := s.FindUsers(ctx, social.UserFilter{Username: "carol"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(named))

	limited, err := s.FindUsers(ctx, social.UserFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func testDeleteUser(t *testing.T, s social.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "ada")))
	require.NoError(t, s.DeleteUser(ctx, "u1"))

	_, err := s.GetUser(ctx, "u1")
	assert.True(t, apperrors.IsNotFound(err))

	// username is free again
	require.NoError(t, s.CreateUser(ctx, NewUser("u2", "ada")))

	err = s.DeleteUser(ctx, "u1")
	assert.True(t, apperrors.IsNotFound(err))
}

func testPostHandlePersist(t *testing.T, s social.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "ada")))
	p := NewPost("p1", "u1", 0)
	require.NoError(t, s.CreatePost(ctx, p))

	h, err := s.LocatePost(ctx, "p1")
	require.NoError(t, err)
	post := h.Post()
	social.Toggle(&post.LikedBy, "u7")
	post.Replies = append(post.Replies,
		social.Reply{ID: "r1", ReplierID: "u2", Content: "first", CreatedAt: base},
		social.Reply{ID: "r2", ReplierID: "u3", Content: "second", CreatedAt: base.Add(time.Second)},
	)
	require.NoError(t, h.Persist(ctx))

	again, err := s.LocatePost(ctx, "p1")
	require.NoError(t, err)
	got := again.Post()
	assert.Equal(t, []string{"u7"}, got.LikedBy)
	require.Len(t, got.Replies, 2)
	assert.Equal(t, "r1", got.Replies[0].ID)
	assert.Equal(t, "r2", got.Replies[1].ID)
	assert.Equal(t, "u1", got.AuthorID)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
}

func testPostHandleConflict(t *testing.T, s social.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "ada")))
	require.NoError(t, s.CreatePost(ctx, NewPost("p1", "u1", 0)))

	h1, err := s.LocatePost(ctx, "p1")
	require.NoError(t, err)
	h2, err := s.LocatePost(ctx, "p1")
	require.NoError(t, err)

	social.Toggle(&h1.Post().LikedBy, "a")
	require.NoError(t, h1.Persist(ctx))

	social.Toggle(&h2.Post().RetweetedBy, "b")
	err = h2.Persist(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrWriteConflict), "got %v", err)
}

func testSiblingPostsIsolated(t *testing.T, s social.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "ada")))
	require.NoError(t, s.CreatePost(ctx, NewPost("p1", "u1", 0)))
	require.NoError(t, s.CreatePost(ctx, NewPost("p2", "u1", 1)))

	h, err := s.LocatePost(ctx, "p1")
	require.NoError(t, err)
	social.Toggle(&h.Post().BookmarkedBy, "u9")
	require.NoError(t, h.Persist(ctx))

	h2, err := s.LocatePost(ctx, "p2")
	require.NoError(t, err)
	h2.Post().Content = "edited"
	require.NoError(t, h2.Persist(ctx))

	p1, err := s.LocatePost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u9"}, p1.Post().BookmarkedBy)
	assert.Equal(t, "post p1", p1.Post().Content)

	p2, err := s.LocatePost(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "edited", p2.Post().Content)
	assert.Empty(t, p2.Post().BookmarkedBy)
}

func testFindPosts(t *testing.T, s social.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "ada")))
	require.NoError(t, s.CreateUser(ctx, NewUser("u2", "bob")))
	for i, author := range []string{"u1", "u2", "u1", "u1"} {
		require.NoError(t, s.CreatePost(ctx, NewPost(fmt.Sprintf("p%d", i), author, i)))
	}

	all, err := s.FindPosts(ctx, social.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1", "p0"}, postIDs(all))

	mine, err := s.FindPosts(ctx, social.PostFilter{AuthorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p0"}, postIDs(mine))

	limited, err := s.FindPosts(ctx, social.PostFilter{AuthorID: "u1", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, postIDs(limited))
}

// Timestamps whose fractional parts have different lengths once trailing
// zeros are trimmed must still order by time.
func testSubSecondOrdering(t *testing.T, s social.Store) {
	ctx := context.Background()
	at := base.Add(5 * time.Second)
	offsets := map[string]time.Duration{
		"a": 0,
		"b": 100 * time.Millisecond,
		"c": 150 * time.Millisecond,
	}
	for _, id := range []string{"b", "c", "a"} {
		u := NewUser(id, "user"+id)
		u.JoinedOn = at.Add(offsets[id])
		require.NoError(t, s.CreateUser(ctx, u))
	}
	for _, id := range []string{"c", "a", "b"} {
		p := NewPost("p"+id, "a", 0)
		p.CreatedAt = at.Add(offsets[id])
		require.NoError(t, s.CreatePost(ctx, p))
	}

	users, err := s.FindUsers(ctx, social.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(users))

	posts, err := s.FindPosts(ctx, social.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"pc", "pb", "pa"}, postIDs(posts))
}

func testRemovePost(t *testing.T, s social.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "ada")))
	require.NoError(t, s.CreatePost(ctx, NewPost("p1", "u1", 0)))
	require.NoError(t, s.CreatePost(ctx, NewPost("p2", "u1", 1)))

	h, err := s.LocatePost(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, h.Remove(ctx))

	_, err = s.LocatePost(ctx, "p1")
	assert.True(t, apperrors.IsNotFound(err))

	rest, err := s.FindPosts(ctx, social.PostFilter{AuthorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, postIDs(rest))
}

func ids(users []*social.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func postIDs(posts []*social.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}
