package social

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notification(originator string, typ NotificationType, postID string) Notification {
	return Notification{
		ID:               originator + string(typ) + postID,
		OriginatorUserID: originator,
		Type:             typ,
		PostID:           postID,
		CreatedAt:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUpsertNotification_FollowedTwiceLeavesNone(t *testing.T) {
	u := &User{ID: "U"}

	assert.Equal(t, NotificationAppended, UpsertNotification(u, notification("X", NotificationFollowed, "")))
	assert.Equal(t, NotificationRemoved, UpsertNotification(u, notification("X", NotificationFollowed, "")))

	assert.Zero(t, CountNotifications(u, NotificationKey{OriginatorUserID: "X", Type: NotificationFollowed}))
	assert.Empty(t, u.Notifications)
}

func TestUpsertNotification_LikedSameKeyTwice(t *testing.T) {
	u := &User{ID: "U"}

	UpsertNotification(u, notification("9", NotificationLiked, "55"))
	UpsertNotification(u, notification("9", NotificationLiked, "55"))

	assert.Empty(t, u.Notifications)
}

func TestUpsertNotification_LikedDifferentPostsKeptApart(t *testing.T) {
	u := &User{ID: "U"}

	UpsertNotification(u, notification("9", NotificationLiked, "55"))
	UpsertNotification(u, notification("9", NotificationLiked, "56"))

	require.Len(t, u.Notifications, 2)
	assert.Equal(t, "55", u.Notifications[0].PostID)
	assert.Equal(t, "56", u.Notifications[1].PostID)
}

func TestUpsertNotification_FollowedCollapsesOnOriginator(t *testing.T) {
	u := &User{ID: "U"}
	UpsertNotification(u, notification("X", NotificationFollowed, "p1"))

	// different post id, same originator and type: collapses instead of appending
	outcome := UpsertNotification(u, notification("X", NotificationFollowed, ""))

	assert.Equal(t, NotificationRemoved, outcome)
	assert.Empty(t, u.Notifications)
}

func TestUpsertNotification_ExactMatchTakesPriority(t *testing.T) {
	u := &User{ID: "U"}
	u.Notifications = []Notification{
		notification("X", NotificationFollowed, "old"),
		notification("X", NotificationFollowed, ""),
	}

	UpsertNotification(u, notification("X", NotificationFollowed, ""))

	// the exact key is removed, not the first Followed from X
	require.Len(t, u.Notifications, 1)
	assert.Equal(t, "old", u.Notifications[0].PostID)
}

func TestUpsertNotification_OtherOriginatorsUntouched(t *testing.T) {
	u := &User{ID: "U"}
	UpsertNotification(u, notification("A", NotificationFollowed, ""))
	UpsertNotification(u, notification("B", NotificationFollowed, ""))
	UpsertNotification(u, notification("A", NotificationReplied, "p1"))

	require.Len(t, u.Notifications, 3)

	UpsertNotification(u, notification("A", NotificationFollowed, ""))
	require.Len(t, u.Notifications, 2)
	assert.Equal(t, "B", u.Notifications[0].OriginatorUserID)
	assert.Equal(t, NotificationReplied, u.Notifications[1].Type)
}

func TestParseNotificationType(t *testing.T) {
	typ, err := ParseNotificationType("Retweeted")
	require.NoError(t, err)
	assert.Equal(t, NotificationRetweeted, typ)

	_, err = ParseNotificationType("followed")
	assert.Error(t, err)
}
