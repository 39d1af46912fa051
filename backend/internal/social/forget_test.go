package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserForget(t *testing.T) {
	u := &User{
		ID:        "1",
		Followers: []string{"2", "3"},
		Following: []string{"2"},
		Notifications: []Notification{
			{ID: "n1", OriginatorUserID: "2", Type: NotificationFollowed},
			{ID: "n2", OriginatorUserID: "3", Type: NotificationLiked, PostID: "p"},
			{ID: "n3", OriginatorUserID: "2", Type: NotificationReplied, PostID: "p"},
		},
	}

	assert.True(t, u.Forget("2"))
	assert.Equal(t, []string{"3"}, u.Followers)
	assert.Empty(t, u.Following)
	assert.Len(t, u.Notifications, 1)
	assert.Equal(t, "n2", u.Notifications[0].ID)

	assert.False(t, u.Forget("2"))
}

func TestPostForget(t *testing.T) {
	p := &Post{
		ID:           "p",
		LikedBy:      []string{"1", "2"},
		RetweetedBy:  []string{"2"},
		BookmarkedBy: []string{"3"},
		Replies: []Reply{
			{ID: "r1", ReplierID: "2"},
			{ID: "r2", ReplierID: "3"},
		},
	}

	assert.True(t, p.Forget("2"))
	assert.Equal(t, []string{"1"}, p.LikedBy)
	assert.Empty(t, p.RetweetedBy)
	assert.Equal(t, []string{"3"}, p.BookmarkedBy)
	assert.Equal(t, []Reply{{ID: "r2", ReplierID: "3"}}, p.Replies)

	assert.False(t, p.Forget("9"))
}
