package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"circle-media/backend/internal/engine"
	"circle-media/backend/internal/social"
)

type signupBody struct {
	FirstName string `json:"firstname" binding:"required,notblank,max=50"`
	LastName  string `json:"lastname" binding:"required,notblank,max=50"`
	Username  string `json:"username" binding:"required,alphanum,min=3,max=30"`
	Email     string `json:"email" binding:"required,email"`
	Bio       string `json:"bio" binding:"max=160"`
	Avatar    string `json:"avatar" binding:"omitempty,url"`
	Location  string `json:"location" binding:"max=50"`
	Link      string `json:"link" binding:"omitempty,url"`
}

type userQuery struct {
	FollowedBy string `form:"followedBy"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type notifyBody struct {
	Type   string `json:"type" binding:"required,oneof=Followed Liked Retweeted Bookmarked Replied"`
	PostID string `json:"postId"`
}

func (h *handler) signup(c *gin.Context) {
	var body signupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBindError(c, err)
		return
	}

	user, err := h.engine.CreateUser(c.Request.Context(), engine.CreateUserRequest{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Username:  body.Username,
		Email:     body.Email,
		Bio:       body.Bio,
		Avatar:    body.Avatar,
		Location:  body.Location,
		Link:      body.Link,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "savedUser": user})
}

func (h *handler) listUsers(c *gin.Context) {
	var q userQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.respondBindError(c, err)
		return
	}

	users, err := h.engine.ListUsers(c.Request.Context(), social.UserFilter{FollowedBy: q.FollowedBy, Limit: q.Limit})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

func (h *handler) getUser(c *gin.Context) {
	user, err := h.engine.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *handler) updateUser(c *gin.Context) {
	var patch social.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	target, err := h.engine.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	updated, err := h.engine.UpdateUser(ctx, engine.UpdateUserRequest{
		UserID:  target.ID,
		ActorID: actorID(c),
		Patch:   patch,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updatedUser": updated})
}

func (h *handler) deleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	target, err := h.engine.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.engine.DeleteUser(ctx, engine.DeleteUserRequest{UserID: target.ID, ActorID: actorID(c)}); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedUser": target.ID})
}

// followUnfollow toggles the actor following :username
func (h *handler) followUnfollow(c *gin.Context) {
	ctx := c.Request.Context()
	target, err := h.engine.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.engine.FollowUnfollow(ctx, engine.FollowRequest{ActorID: actorID(c), TargetID: target.ID})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"direction":      res.Direction,
		"followedToUser": res.Target,
		"followedByUser": res.Actor,
	})
}

// notify delivers an event from the actor to :username
func (h *handler) notify(c *gin.Context) {
	var body notifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	recipient, err := h.engine.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.engine.Notify(ctx, engine.NotifyRequest{
		RecipientID:  recipient.ID,
		OriginatorID: actorID(c),
		Type:         body.Type,
		PostID:       body.PostID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "outcome": res.Outcome, "user": res.Recipient})
}

func (h *handler) reconcile(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.engine.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	report, err := h.engine.ReconcileFollows(ctx, user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
