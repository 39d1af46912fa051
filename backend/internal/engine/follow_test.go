package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circle-media/backend/internal/social"
	"circle-media/backend/internal/store/memory"
	apperrors "circle-media/backend/pkg/errors"
)

func TestFollowUnfollow_FollowThenUnfollow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedUsers(t, store, "1", "2")
	e := newTestEngine(t, store)

	res, err := e.FollowUnfollow(ctx, FollowRequest{ActorID: "1", TargetID: "2"})
	require.NoError(t, err)
	assert.Equal(t, social.Added, res.Direction)
	assert.Equal(t, []string{"2"}, res.Actor.Following)
	assert.Equal(t, []string{"1"}, res.Target.Followers)

	assert.Equal(t, []string{"2"}, mustUser(t, store, "1").Following)
	assert.Equal(t, []string{"1"}, mustUser(t, store, "2").Followers)

	res, err = e.FollowUnfollow(ctx, FollowRequest{ActorID: "1", TargetID: "2"})
	require.NoError(t, err)
	assert.Equal(t, social.Removed, res.Direction)
	assert.Empty(t, mustUser(t, store, "1").Following)
	assert.Empty(t, mustUser(t, store, "2").Followers)
}

func TestFollowUnfollow_SymmetryHoldsAfterEverySuccess(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedUsers(t, store, "a", "b", "c")
	e := newTestEngine(t, store)

	steps := []FollowRequest{
		{ActorID: "a", TargetID: "b"},
		{ActorID: "b", TargetID: "a"},
		{ActorID: "c", TargetID: "a"},
		{ActorID: "a", TargetID: "b"},
		{ActorID: "a", TargetID: "c"},
		{ActorID: "c", TargetID: "a"},
	}
	for _, step := range steps {
		_, err := e.FollowUnfollow(ctx, step)
		require.NoError(t, err)

		users := map[string]*social.User{}
		for _, id := range []string{"a", "b", "c"} {
			users[id] = mustUser(t, store, id)
		}
		for _, x := range users {
			for _, y := range users {
				assert.Equal(t,
					social.Contains(x.Following, y.ID),
					social.Contains(y.Followers, x.ID),
					"after %+v: %s following %s", step, x.ID, y.ID)
			}
		}
	}
}

func TestFollowUnfollow_SelfFollowRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedUsers(t, store, "1")
	e := newTestEngine(t, store)

	for _, id := range []string{"1", "does-not-exist"} {
		_, err := e.FollowUnfollow(ctx, FollowRequest{ActorID: id, TargetID: id})
		require.Error(t, err)
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInvalidOperation), "got %v", err)
	}
	assert.Empty(t, mustUser(t, store, "1").Following)
}

func TestFollowUnfollow_MissingUsers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedUsers(t, store, "1")
	e := newTestEngine(t, store)

	_, err := e.FollowUnfollow(ctx, FollowRequest{ActorID: "1", TargetID: "ghost"})
	require.Error(t, err)
	var nf *apperrors.ErrNotFound
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "ghost", nf.ID)

	_, err = e.FollowUnfollow(ctx, FollowRequest{ActorID: "ghost", TargetID: "1"})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, mustUser(t, store, "1").Followers)

	_, err = e.FollowUnfollow(ctx, FollowRequest{ActorID: "", TargetID: "1"})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInvalidOperation))
}

func TestFollowUnfollow_FirstSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore(memory.New())
	seedUsers(t, store, "1", "2")
	store.failSaveOf("2", errDiskFull)
	e := newTestEngine(t, store)

	_, err := e.FollowUnfollow(ctx, FollowRequest{ActorID: "1", TargetID: "2"})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypePersistence), "got %v", err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.True(t, errors.Is(err, errDiskFull))

	assert.Empty(t, mustUser(t, store, "1").Following)
	assert.Empty(t, mustUser(t, store, "2").Followers)
}

func TestFollowUnfollow_PartialWriteThenReconcile(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore(memory.New())
	seedUsers(t, store, "1", "2")
	store.failSaveOf("1", errDiskFull)
	e := newTestEngine(t, store)

	_, err := e.FollowUnfollow(ctx, FollowRequest{ActorID: "1", TargetID: "2"})
	require.Error(t, err)

	var pw *apperrors.ErrPartialWrite
	require.True(t, errors.As(err, &pw), "got %v", err)
	assert.Equal(t, []string{"user/2"}, pw.Committed)
	assert.Equal(t, []string{"user/1"}, pw.Failed)
	assert.False(t, apperrors.IsRetryable(err))

	// followers side committed, following side did not
	assert.Equal(t, []string{"1"}, mustUser(t, store, "2").Followers)
	assert.Empty(t, mustUser(t, store, "1").Following)

	store.heal()
	report, err := e.ReconcileFollows(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, report.FollowingAdded)
	assert.True(t, report.Changed())
	assert.Equal(t, []string{"2"}, mustUser(t, store, "1").Following)
}

func TestFollowUnfollow_ConflictingSaveIsPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	seedUsers(t, inner, "1", "2")
	store := newFailingStore(inner)
	store.failSaveOf("2", apperrors.ErrWriteConflict)
	e := newTestEngine(t, store)

	_, err := e.FollowUnfollow(ctx, FollowRequest{ActorID: "1", TargetID: "2"})
	var pf *apperrors.ErrPersistenceFailure
	require.True(t, errors.As(err, &pf), "got %v", err)
	assert.True(t, pf.IsConflict())
}

func TestReconcileFollows_RepairsBothDirections(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedUsers(t, store, "u", "f", "t", "stale")
	e := newTestEngine(t, store)

	// u is followed by f (but f does not list u), follows t (t lists u),
	// claims to follow "stale" which does not list it, and lists itself and a
	// deleted user as followers
	u := mustUser(t, store, "u")
	u.Followers = []string{"f", "u", "gone"}
	u.Following = []string{"stale"}
	require.NoError(t, store.SaveUser(ctx, u))

	tu := mustUser(t, store, "t")
	tu.Followers = []string{"u"}
	require.NoError(t, store.SaveUser(ctx, tu))

	report, err := e.ReconcileFollows(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, report.FollowingAdded)
	assert.Equal(t, []string{"stale"}, report.FollowingRemoved)
	assert.ElementsMatch(t, []string{"u", "gone"}, report.FollowersDropped)
	assert.Equal(t, []string{"f"}, report.RepairedUsers)

	got := mustUser(t, store, "u")
	assert.Equal(t, []string{"t"}, got.Following)
	assert.Equal(t, []string{"f"}, got.Followers)
	assert.Equal(t, []string{"u"}, mustUser(t, store, "f").Following)

	again, err := e.ReconcileFollows(ctx, "u")
	require.NoError(t, err)
	assert.False(t, again.Changed())
}

func TestReconcileAll(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedUsers(t, store, "a", "b")
	e := newTestEngine(t, store)

	b := mustUser(t, store, "b")
	b.Followers = []string{"a"}
	require.NoError(t, store.SaveUser(ctx, b))

	reports, err := e.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "a", reports[0].UserID)
	assert.Equal(t, []string{"b"}, mustUser(t, store, "a").Following)

	reports, err = e.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
