// Package api exposes the engine over HTTP with gin
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"circle-media/backend/internal/engine"
)

// Options tune the router
type Options struct {
	// Metrics mounts the Prometheus handler at /metrics
	Metrics bool
}

type handler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewRouter builds the gin engine with every route mounted
func NewRouter(eng *engine.Engine, log *zap.Logger, opts Options) *gin.Engine {
	registerValidators()

	h := &handler{engine: eng, logger: log}

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	users := router.Group("/users")
	{
		users.POST("/signup", h.signup)

		authed := users.Group("", RequireActor())
		authed.GET("", h.listUsers)
		authed.GET("/:username", h.getUser)
		authed.POST("/:username", h.updateUser)
		authed.DELETE("/:username", h.deleteUser)
		authed.POST("/:username/followunfollow", h.followUnfollow)
		authed.POST("/:username/notifications", h.notify)
		authed.POST("/:username/reconcile", h.reconcile)
	}

	posts := router.Group("/posts", RequireActor())
	{
		posts.POST("/newPost", h.createPost)
		posts.GET("", h.listPosts)
		posts.GET("/user/:userId", h.listUserPosts)
		posts.GET("/:postId", h.getPost)
		posts.POST("/:postId", h.updatePost)
		posts.DELETE("/:postId", h.deletePost)
		posts.POST("/:postId/like", h.toggleLike)
		posts.POST("/:postId/retweet", h.toggleRetweet)
		posts.POST("/:postId/bookmark", h.toggleBookmark)
		posts.POST("/:postId/replies", h.addReply)
		posts.POST("/:postId/replies/:replyId", h.updateReply)
		posts.DELETE("/:postId/replies/:replyId", h.deleteReply)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Route not found on server, please check",
		})
	})

	return router
}
