package social

import (
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// Entities
// ============================================================================

// User is a member of the network. Followers and Following are sets kept as
// insertion-ordered slices without duplicates.
type User struct {
	ID            string         `json:"id"`
	FirstName     string         `json:"firstname"`
	LastName      string         `json:"lastname"`
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	Bio           string         `json:"bio"`
	Avatar        string         `json:"avatar"`
	Location      string         `json:"location"`
	Link          string         `json:"link"`
	JoinedOn      time.Time      `json:"joinedOn"`
	Followers     []string       `json:"followers"`
	Following     []string       `json:"following"`
	Notifications []Notification `json:"notifications"`
	Version       int64          `json:"version"`
}

// Post is a piece of content and the interactions attached to it
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"userId"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"postDate"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LikedBy      []string  `json:"likedBy"`
	RetweetedBy  []string  `json:"retweetedBy"`
	BookmarkedBy []string  `json:"bookmarkedBy"`
	Replies      []Reply   `json:"replies"`
	Version      int64     `json:"version"`
}

// Reply belongs to exactly one Post
type Reply struct {
	ID        string    `json:"id"`
	ReplierID string    `json:"replierId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"date"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NotificationType names the event a notification reports
type NotificationType string

const (
	NotificationFollowed   NotificationType = "Followed"
	NotificationLiked      NotificationType = "Liked"
	NotificationRetweeted  NotificationType = "Retweeted"
	NotificationBookmarked NotificationType = "Bookmarked"
	NotificationReplied    NotificationType = "Replied"
)

// ParseNotificationType accepts the canonical names only
func ParseNotificationType(s string) (NotificationType, error) {
	switch t := NotificationType(s); t {
	case NotificationFollowed, NotificationLiked, NotificationRetweeted, NotificationBookmarked, NotificationReplied:
		return t, nil
	}
	return "", fmt.Errorf("unknown notification type %q", s)
}

// Notification belongs to its recipient User. PostID is empty when the event
// is not about a post.
type Notification struct {
	ID               string           `json:"id"`
	OriginatorUserID string           `json:"originatorUserId"`
	Type             NotificationType `json:"type"`
	PostID           string           `json:"postId,omitempty"`
	CreatedAt        time.Time        `json:"date"`
}

// Key returns the dedup key of the notification
func (n Notification) Key() NotificationKey {
	return NotificationKey{OriginatorUserID: n.OriginatorUserID, Type: n.Type, PostID: n.PostID}
}

// NotificationKey identifies a notification for deduplication
type NotificationKey struct {
	OriginatorUserID string
	Type             NotificationType
	PostID           string
}

// FindReply returns the index of the reply with the given id, or -1
func (p *Post) FindReply(replyID string) int {
	for i := range p.Replies {
		if p.Replies[i].ID == replyID {
			return i
		}
	}
	return -1
}

// ============================================================================
// Patches
// ============================================================================

// UserPatch lists the profile fields a user may change. Everything else on
// User (ids, username, email, relationship sets, notifications) is immutable
// through a patch.
type UserPatch struct {
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
	Bio       *string `json:"bio"`
	Avatar    *string `json:"avatar"`
	Location  *string `json:"location"`
	Link      *string `json:"link"`
}

// Apply merges the patch into u and reports whether anything changed
func (p UserPatch) Apply(u *User) bool {
	changed := false
	changed = set(&u.FirstName, p.FirstName) || changed
	changed = set(&u.LastName, p.LastName) || changed
	changed = set(&u.Bio, p.Bio) || changed
	changed = set(&u.Avatar, p.Avatar) || changed
	changed = set(&u.Location, p.Location) || changed
	changed = set(&u.Link, p.Link) || changed
	return changed
}

// Validate rejects patches that would blank a required name
func (p UserPatch) Validate() error {
	if blank(p.FirstName) {
		return fmt.Errorf("firstname cannot be empty")
	}
	if blank(p.LastName) {
		return fmt.Errorf("lastname cannot be empty")
	}
	return nil
}

// PostPatch lists the mutable fields of a Post
type PostPatch struct {
	Content *string `json:"content"`
}

// Apply merges the patch into p and reports whether anything changed
func (pp PostPatch) Apply(p *Post) bool {
	return set(&p.Content, pp.Content)
}

// Validate rejects blank content
func (pp PostPatch) Validate() error {
	if blank(pp.Content) {
		return fmt.Errorf("content cannot be empty")
	}
	return nil
}

// ReplyPatch lists the mutable fields of a Reply. ID and ReplierID are fixed
// at creation.
type ReplyPatch struct {
	Content *string `json:"content"`
}

// Apply merges the patch into r and reports whether anything changed
func (rp ReplyPatch) Apply(r *Reply) bool {
	return set(&r.Content, rp.Content)
}

// Validate rejects blank content
func (rp ReplyPatch) Validate() error {
	if blank(rp.Content) {
		return fmt.Errorf("content cannot be empty")
	}
	return nil
}

func set(dst *string, v *string) bool {
	if v == nil || *dst == *v {
		return false
	}
	*dst = *v
	return true
}

func blank(v *string) bool {
	return v != nil && strings.TrimSpace(*v) == ""
}

// ============================================================================
// Copies
// ============================================================================

// Clone returns a deep copy so adapters never share slices with callers
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Followers = cloneIDs(u.Followers)
	c.Following = cloneIDs(u.Following)
	c.Notifications = append([]Notification(nil), u.Notifications...)
	return &c
}

// Clone returns a deep copy of the post including its replies
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.LikedBy = cloneIDs(p.LikedBy)
	c.RetweetedBy = cloneIDs(p.RetweetedBy)
	c.BookmarkedBy = cloneIDs(p.BookmarkedBy)
	c.Replies = append([]Reply(nil), p.Replies...)
	return &c
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	return append([]string(nil), ids...)
}
