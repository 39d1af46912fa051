package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestUserPatch_AllowList(t *testing.T) {
	u := &User{ID: "1", Username: "ada", FirstName: "Ada", Bio: "old", Followers: []string{"2"}}

	changed := UserPatch{Bio: strPtr("new bio"), Link: strPtr("https://example.com")}.Apply(u)

	assert.True(t, changed)
	assert.Equal(t, "new bio", u.Bio)
	assert.Equal(t, "https://example.com", u.Link)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, []string{"2"}, u.Followers)
}

func TestUserPatch_NoChange(t *testing.T) {
	u := &User{Bio: "same"}
	assert.False(t, UserPatch{Bio: strPtr("same")}.Apply(u))
	assert.False(t, UserPatch{}.Apply(u))
}

func TestPatchValidate(t *testing.T) {
	assert.Error(t, UserPatch{FirstName: strPtr("  ")}.Validate())
	assert.NoError(t, UserPatch{Bio: strPtr("")}.Validate())
	assert.Error(t, PostPatch{Content: strPtr("")}.Validate())
	assert.NoError(t, PostPatch{}.Validate())
	assert.Error(t, ReplyPatch{Content: strPtr("\n")}.Validate())
}

func TestReplyPatch_KeepsIdentity(t *testing.T) {
	r := &Reply{ID: "r1", ReplierID: "u1", Content: "hi"}
	assert.True(t, ReplyPatch{Content: strPtr("hello")}.Apply(r))
	assert.Equal(t, Reply{ID: "r1", ReplierID: "u1", Content: "hello"}, *r)
}

func TestClone_IsDeep(t *testing.T) {
	p := &Post{ID: "p", LikedBy: []string{"1"}, Replies: []Reply{{ID: "r"}}}
	c := p.Clone()
	c.LikedBy[0] = "changed"
	c.Replies[0].Content = "changed"

	assert.Equal(t, "1", p.LikedBy[0])
	assert.Equal(t, "", p.Replies[0].Content)

	u := &User{Followers: []string{"a"}, Notifications: []Notification{{ID: "n"}}}
	uc := u.Clone()
	uc.Followers[0] = "b"
	uc.Notifications[0].ID = "m"
	assert.Equal(t, "a", u.Followers[0])
	assert.Equal(t, "n", u.Notifications[0].ID)
}

func TestPost_FindReply(t *testing.T) {
	p := &Post{Replies: []Reply{{ID: "r1"}, {ID: "r2"}}}
	assert.Equal(t, 1, p.FindReply("r2"))
	assert.Equal(t, -1, p.FindReply("r3"))
}
