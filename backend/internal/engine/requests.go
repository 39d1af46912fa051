package engine

import "circle-media/backend/internal/social"

// ============================================================================
// Follow graph
// ============================================================================

// FollowRequest toggles ActorID following TargetID
type FollowRequest struct {
	ActorID  string
	TargetID string
}

// FollowResult carries both users as saved
type FollowResult struct {
	Actor     *social.User     `json:"actor"`
	Target    *social.User     `json:"target"`
	Direction social.Direction `json:"direction"`
}

// ReconcileReport lists the repairs one reconciliation made
type ReconcileReport struct {
	UserID           string   `json:"userId"`
	FollowingAdded   []string `json:"followingAdded,omitempty"`
	FollowingRemoved []string `json:"followingRemoved,omitempty"`
	FollowersDropped []string `json:"followersDropped,omitempty"`
	// RepairedUsers are neighbours whose Following gained UserID
	RepairedUsers []string `json:"repairedUsers,omitempty"`
}

// Changed reports whether any record was rewritten
func (r *ReconcileReport) Changed() bool {
	return len(r.FollowingAdded)+len(r.FollowingRemoved)+len(r.FollowersDropped)+len(r.RepairedUsers) > 0
}

// ============================================================================
// Notifications
// ============================================================================

// NotifyRequest delivers one event to RecipientID. PostID is empty for
// follows.
type NotifyRequest struct {
	RecipientID  string
	OriginatorID string
	Type         string
	PostID       string
}

// NotifyResult reports what happened to the recipient's feed
type NotifyResult struct {
	Recipient *social.User               `json:"recipient"`
	Outcome   social.NotificationOutcome `json:"outcome"`
}

// ============================================================================
// Posts and interactions
// ============================================================================

// InteractionRequest toggles ActorID in one of a post's interaction sets
type InteractionRequest struct {
	PostID  string
	ActorID string
}

// InteractionResult is the post after the toggle
type InteractionResult struct {
	Post      *social.Post     `json:"post"`
	Direction social.Direction `json:"direction"`
}

// ReplyRequest appends a reply by ActorID
type ReplyRequest struct {
	PostID  string
	ActorID string
	Content string
}

// ReplyResult is the post after the change and the reply concerned
type ReplyResult struct {
	Post  *social.Post  `json:"post"`
	Reply *social.Reply `json:"reply,omitempty"`
}

// UpdateReplyRequest edits a reply's content
type UpdateReplyRequest struct {
	PostID  string
	ReplyID string
	ActorID string
	Patch   social.ReplyPatch
}

// DeleteReplyRequest removes a reply
type DeleteReplyRequest struct {
	PostID  string
	ReplyID string
	ActorID string
}

// CreatePostRequest publishes a post authored by ActorID
type CreatePostRequest struct {
	ActorID string
	Content string
}

// UpdatePostRequest edits a post
type UpdatePostRequest struct {
	PostID  string
	ActorID string
	Patch   social.PostPatch
}

// DeletePostRequest removes a post
type DeletePostRequest struct {
	PostID  string
	ActorID string
}

// ============================================================================
// Users
// ============================================================================

// CreateUserRequest signs a new user up
type CreateUserRequest struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Bio       string
	Avatar    string
	Location  string
	Link      string
}

// UpdateUserRequest edits UserID's profile on behalf of ActorID
type UpdateUserRequest struct {
	UserID  string
	ActorID string
	Patch   social.UserPatch
}

// DeleteUserRequest removes UserID on behalf of ActorID
type DeleteUserRequest struct {
	UserID  string
	ActorID string
}
