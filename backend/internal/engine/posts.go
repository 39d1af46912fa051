package engine

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

const (
	opLike        = "toggle_like"
	opRetweet     = "toggle_retweet"
	opBookmark    = "toggle_bookmark"
	opAddReply    = "add_reply"
	opUpdateReply = "update_reply"
	opDeleteReply = "delete_reply"
	opCreatePost  = "create_post"
	opGetPost     = "get_post"
	opListPosts   = "list_posts"
	opUpdatePost  = "update_post"
	opDeletePost  = "delete_post"
)

// ============================================================================
// Interactions
// ============================================================================

// ToggleLike adds or removes the actor from the post's likes
func (e *Engine) ToggleLike(ctx context.Context, req InteractionRequest) (*InteractionResult, error) {
	return e.toggleInteraction(ctx, opLike, req, func(p *social.Post) *[]string { return &p.LikedBy })
}

// ToggleRetweet adds or removes the actor from the post's retweets
func (e *Engine) ToggleRetweet(ctx context.Context, req InteractionRequest) (*InteractionResult, error) {
	return e.toggleInteraction(ctx, opRetweet, req, func(p *social.Post) *[]string { return &p.RetweetedBy })
}

// ToggleBookmark adds or removes the actor from the post's bookmarks
func (e *Engine) ToggleBookmark(ctx context.Context, req InteractionRequest) (*InteractionResult, error) {
	return e.toggleInteraction(ctx, opBookmark, req, func(p *social.Post) *[]string { return &p.BookmarkedBy })
}

func (e *Engine) toggleInteraction(ctx context.Context, op string, req InteractionRequest, set func(*social.Post) *[]string) (res *InteractionResult, err error) {
	defer e.observe(op, time.Now(), &err)

	if err := requireID(op, "post id", req.PostID); err != nil {
		return nil, err
	}
	if err := requireID(op, "actor id", req.ActorID); err != nil {
		return nil, err
	}

	h, err := e.locatePost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	post := h.Post()
	dir := social.Toggle(set(post), req.ActorID)
	if err := e.persistPost(ctx, h); err != nil {
		return nil, err
	}

	toggleDirections.WithLabelValues(op, string(dir)).Inc()
	e.logger.Debug("Interaction toggled",
		zap.String("operation", op),
		zap.String("post_id", post.ID),
		zap.String("actor_id", req.ActorID),
		zap.String("direction", string(dir)),
	)
	return &InteractionResult{Post: post, Direction: dir}, nil
}

// ============================================================================
// Replies
// ============================================================================

// AddReply appends a reply; replies keep insertion order
func (e *Engine) AddReply(ctx context.Context, req ReplyRequest) (res *ReplyResult, err error) {
	defer e.observe(opAddReply, time.Now(), &err)

	if err := requireID(opAddReply, "post id", req.PostID); err != nil {
		return nil, err
	}
	if err := requireID(opAddReply, "actor id", req.ActorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperrors.NewInvalidOperation(opAddReply, "content cannot be empty")
	}

	h, err := e.locatePost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	post := h.Post()
	now := e.now()
	post.Replies = append(post.Replies, social.Reply{
		ID:        e.newID(),
		ReplierID: req.ActorID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err := e.persistPost(ctx, h); err != nil {
		return nil, err
	}

	reply := post.Replies[len(post.Replies)-1]
	return &ReplyResult{Post: post, Reply: &reply}, nil
}

// UpdateReply edits the content of a reply; only its replier may
func (e *Engine) UpdateReply(ctx context.Context, req UpdateReplyRequest) (res *ReplyResult, err error) {
	defer e.observe(opUpdateReply, time.Now(), &err)

	if err := req.Patch.Validate(); err != nil {
		return nil, apperrors.NewInvalidOperation(opUpdateReply, err.Error())
	}

	h, i, err := e.locateReply(ctx, req.PostID, req.ReplyID)
	if err != nil {
		return nil, err
	}
	post := h.Post()
	reply := &post.Replies[i]
	if reply.ReplierID != req.ActorID {
		return nil, apperrors.NewInvalidOperation(opUpdateReply, "only the replier can edit a reply")
	}

	if req.Patch.Apply(reply) {
		reply.UpdatedAt = e.now()
		if err := e.persistPost(ctx, h); err != nil {
			return nil, err
		}
	}

	updated := post.Replies[i]
	return &ReplyResult{Post: post, Reply: &updated}, nil
}

// DeleteReply removes a reply; its replier or the post's author may
func (e *Engine) DeleteReply(ctx context.Context, req DeleteReplyRequest) (res *ReplyResult, err error) {
	defer e.observe(opDeleteReply, time.Now(), &err)

	h, i, err := e.locateReply(ctx, req.PostID, req.ReplyID)
	if err != nil {
		return nil, err
	}
	post := h.Post()
	removed := post.Replies[i]
	if removed.ReplierID != req.ActorID && post.AuthorID != req.ActorID {
		return nil, apperrors.NewInvalidOperation(opDeleteReply, "only the replier or the post author can delete a reply")
	}

	replies := make([]social.Reply, 0, len(post.Replies)-1)
	replies = append(replies, post.Replies[:i]...)
	post.Replies = append(replies, post.Replies[i+1:]...)
	if err := e.persistPost(ctx, h); err != nil {
		return nil, err
	}
	return &ReplyResult{Post: post, Reply: &removed}, nil
}

func (e *Engine) locateReply(ctx context.Context, postID, replyID string) (social.PostHandle, int, error) {
	h, err := e.locatePost(ctx, postID)
	if err != nil {
		return nil, -1, err
	}
	i := h.Post().FindReply(replyID)
	if i < 0 {
		return nil, -1, apperrors.NewNotFound(apperrors.KindReply, replyID)
	}
	return h, i, nil
}

// ============================================================================
// Posts
// ============================================================================

// CreatePost publishes a post; the author must exist
func (e *Engine) CreatePost(ctx context.Context, req CreatePostRequest) (post *social.Post, err error) {
	defer e.observe(opCreatePost, time.Now(), &err)

	if err := requireID(opCreatePost, "actor id", req.ActorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperrors.NewInvalidOperation(opCreatePost, "content cannot be empty")
	}
	if _, err := e.loadUser(ctx, req.ActorID); err != nil {
		return nil, err
	}

	now := e.now()
	post = &social.Post{
		ID:        e.newID(),
		AuthorID:  req.ActorID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.CreatePost(ctx, post); err != nil {
		return nil, apperrors.NewPersistenceFailure(apperrors.KindPost, post.ID, "create", err)
	}

	e.logger.Info("Post created", zap.String("post_id", post.ID), zap.String("author_id", post.AuthorID))
	return post, nil
}

// GetPost returns one post
func (e *Engine) GetPost(ctx context.Context, postID string) (post *social.Post, err error) {
	defer e.observe(opGetPost, time.Now(), &err)

	h, err := e.locatePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return h.Post(), nil
}

// ListPosts returns posts newest first
func (e *Engine) ListPosts(ctx context.Context, filter social.PostFilter) (posts []*social.Post, err error) {
	defer e.observe(opListPosts, time.Now(), &err)

	posts, err = e.store.FindPosts(ctx, filter)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(apperrors.KindPost, filter.AuthorID, "list", err)
	}
	if posts == nil {
		posts = []*social.Post{}
	}
	return posts, nil
}

// UpdatePost edits a post; only its author may
func (e *Engine) UpdatePost(ctx context.Context, req UpdatePostRequest) (post *social.Post, err error) {
	defer e.observe(opUpdatePost, time.Now(), &err)

	if err := req.Patch.Validate(); err != nil {
		return nil, apperrors.NewInvalidOperation(opUpdatePost, err.Error())
	}

	h, err := e.locatePost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	post = h.Post()
	if post.AuthorID != req.ActorID {
		return nil, apperrors.NewInvalidOperation(opUpdatePost, "only the author can edit a post")
	}

	if req.Patch.Apply(post) {
		post.UpdatedAt = e.now()
		if err := e.persistPost(ctx, h); err != nil {
			return nil, err
		}
	}
	return post, nil
}

// DeletePost removes a post; only its author may
func (e *Engine) DeletePost(ctx context.Context, req DeletePostRequest) (err error) {
	defer e.observe(opDeletePost, time.Now(), &err)

	h, err := e.locatePost(ctx, req.PostID)
	if err != nil {
		return err
	}
	post := h.Post()
	if post.AuthorID != req.ActorID {
		return apperrors.NewInvalidOperation(opDeletePost, "only the author can delete a post")
	}

	if err := h.Remove(ctx); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound(apperrors.KindPost, post.ID)
		}
		return apperrors.NewPersistenceFailure(apperrors.KindPost, post.ID, "delete", err)
	}

	e.logger.Info("Post deleted", zap.String("post_id", post.ID), zap.String("author_id", post.AuthorID))
	return nil
}
