package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"circle-media/backend/internal/engine"
	"circle-media/backend/internal/social"
)

type contentBody struct {
	Content string `json:"content" binding:"required,notblank,max=280"`
}

type postQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (h *handler) createPost(c *gin.Context) {
	var body contentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBindError(c, err)
		return
	}

	post, err := h.engine.CreatePost(c.Request.Context(), engine.CreatePostRequest{ActorID: actorID(c), Content: body.Content})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "savedPost": post})
}

func (h *handler) listPosts(c *gin.Context) {
	h.respondPosts(c, "")
}

func (h *handler) listUserPosts(c *gin.Context) {
	h.respondPosts(c, c.Param("userId"))
}

func (h *handler) respondPosts(c *gin.Context, authorID string) {
	var q postQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.respondBindError(c, err)
		return
	}

	posts, err := h.engine.ListPosts(c.Request.Context(), social.PostFilter{AuthorID: authorID, Limit: q.Limit})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts})
}

func (h *handler) getPost(c *gin.Context) {
	post, err := h.engine.GetPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

func (h *handler) updatePost(c *gin.Context) {
	var patch social.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.respondBindError(c, err)
		return
	}

	post, err := h.engine.UpdatePost(c.Request.Context(), engine.UpdatePostRequest{
		PostID:  c.Param("postId"),
		ActorID: actorID(c),
		Patch:   patch,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

func (h *handler) deletePost(c *gin.Context) {
	postID := c.Param("postId")
	if err := h.engine.DeletePost(c.Request.Context(), engine.DeletePostRequest{PostID: postID, ActorID: actorID(c)}); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedPost": postID})
}

func (h *handler) toggleLike(c *gin.Context) {
	h.toggle(c, h.engine.ToggleLike)
}

func (h *handler) toggleRetweet(c *gin.Context) {
	h.toggle(c, h.engine.ToggleRetweet)
}

func (h *handler) toggleBookmark(c *gin.Context) {
	h.toggle(c, h.engine.ToggleBookmark)
}

func (h *handler) toggle(c *gin.Context, fn func(context.Context, engine.InteractionRequest) (*engine.InteractionResult, error)) {
	res, err := fn(c.Request.Context(), engine.InteractionRequest{PostID: c.Param("postId"), ActorID: actorID(c)})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "direction": res.Direction, "post": res.Post})
}

func (h *handler) addReply(c *gin.Context) {
	var body contentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBindError(c, err)
		return
	}

	res, err := h.engine.AddReply(c.Request.Context(), engine.ReplyRequest{
		PostID:  c.Param("postId"),
		ActorID: actorID(c),
		Content: body.Content,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "reply": res.Reply, "post": res.Post})
}

func (h *handler) updateReply(c *gin.Context) {
	var patch social.ReplyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.respondBindError(c, err)
		return
	}

	res, err := h.engine.UpdateReply(c.Request.Context(), engine.UpdateReplyRequest{
		PostID:  c.Param("postId"),
		ReplyID: c.Param("replyId"),
		ActorID: actorID(c),
		Patch:   patch,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reply": res.Reply, "post": res.Post})
}

func (h *handler) deleteReply(c *gin.Context) {
	res, err := h.engine.DeleteReply(c.Request.Context(), engine.DeleteReplyRequest{
		PostID:  c.Param("postId"),
		ReplyID: c.Param("replyId"),
		ActorID: actorID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": res.Post})
}
