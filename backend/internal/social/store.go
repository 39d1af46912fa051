package social

import "context"

// Store is the persistence boundary of the engine. Implementations serialise
// writes per record with the Version field: a save whose Version differs from
// the stored one fails with errors.ErrWriteConflict, and a successful save
// increments Version on the passed entity.
//
// Lookups of missing records return *errors.ErrNotFound.
type Store interface {
	// CreateUser inserts u. A taken username or email fails with
	// errors.ErrAlreadyExists.
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	FindUsers(ctx context.Context, filter UserFilter) ([]*User, error)
	SaveUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id string) error

	CreatePost(ctx context.Context, p *Post) error
	// LocatePost finds a post and returns a handle on the collection that
	// owns it, whatever shape the adapter stores posts in.
	LocatePost(ctx context.Context, postID string) (PostHandle, error)
	FindPosts(ctx context.Context, filter PostFilter) ([]*Post, error)

	Close() error
}

// PostHandle is the owning-collection capability for one located post.
// Mutate Post() in place, then Persist re-saves whatever record owns it: the
// post document itself, or the author's whole feed document when posts are
// embedded.
type PostHandle interface {
	Post() *Post
	Persist(ctx context.Context) error
	Remove(ctx context.Context) error
}

// UserFilter narrows FindUsers. Zero value matches every user.
type UserFilter struct {
	Username   string
	FollowedBy string // users whose Followers contain this id
	Limit      int
}

// Match reports whether u satisfies the filter. Adapters without a native
// query for a field fall back to it.
func (f UserFilter) Match(u *User) bool {
	if f.Username != "" && u.Username != f.Username {
		return false
	}
	if f.FollowedBy != "" && !Contains(u.Followers, f.FollowedBy) {
		return false
	}
	return true
}

// PostFilter narrows FindPosts. Results are newest first.
type PostFilter struct {
	AuthorID string
	Limit    int
}

// Match reports whether p satisfies the filter
func (f PostFilter) Match(p *Post) bool {
	return f.AuthorID == "" || p.AuthorID == f.AuthorID
}
