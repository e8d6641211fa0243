package http

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/instaclone-server/internal/config"
	"github.com/instaclone-server/internal/http/middleware"
)

// Presence reports who is connected.
type Presence interface {
	Count() int
}

type RouterDeps struct {
	Handler  *Handler
	AuthMW   *middleware.Auth
	Socket   http.Handler
	Presence Presence
	Config   config.Config
	Logger   *slog.Logger
}

// NewRouter wires Gin with middleware, the REST API and the socket endpoint.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if deps.Logger != nil {
		r.Use(middleware.Logger(deps.Logger))
	}
	if origins := deps.Config.ClientOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			AllowCredentials: true,
		}))
	}

	api := r.Group("/api/v1")
	registerUserRoutes(api.Group("/user"), deps)
	registerPostRoutes(api.Group("/post"), deps)
	registerMessageRoutes(api.Group("/message"), deps)

	if deps.Socket != nil {
		r.GET("/socket", gin.WrapH(deps.Socket))
	}
	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if deps.Presence != nil {
		r.GET("/stats", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"online": deps.Presence.Count()}) })
	}

	if deps.Config.UploadDir != "" {
		r.Static("/uploads", deps.Config.UploadDir)
	}
	if deps.Config.StaticDir != "" {
		r.NoRoute(frontend(deps.Config.StaticDir))
	}
	return r
}

func registerUserRoutes(r *gin.RouterGroup, deps RouterDeps) {
	authed := deps.AuthMW.Middleware()
	r.POST("/register", deps.Handler.Register)
	r.POST("/login", deps.Handler.Login)
	r.GET("/logout", deps.Handler.Logout)
	r.GET("/:id/profile", authed, deps.Handler.GetProfile)
	r.POST("/profile/edit", authed, deps.Handler.EditProfile)
	r.GET("/suggested", authed, deps.Handler.SuggestedUsers)
	r.POST("/followorunfollow/:id", authed, deps.Handler.FollowOrUnfollow)
}

func registerPostRoutes(r *gin.RouterGroup, deps RouterDeps) {
	r.Use(deps.AuthMW.Middleware())
	r.POST("/addpost", deps.Handler.AddPost)
	r.GET("/all", deps.Handler.AllPosts)
	r.GET("/userpost/all", deps.Handler.UserPosts)
	r.POST("/:id/like", deps.Handler.LikePost)
	r.POST("/:id/dislike", deps.Handler.DislikePost)
	r.POST("/:id/comment", deps.Handler.AddComment)
	r.GET("/:id/comment/all", deps.Handler.PostComments)
	r.DELETE("/delete/:id", deps.Handler.DeletePost)
	r.GET("/:id/bookmark", deps.Handler.BookmarkPost)
}

func registerMessageRoutes(r *gin.RouterGroup, deps RouterDeps) {
	r.Use(deps.AuthMW.Middleware())
	r.POST("/send/:id", deps.Handler.SendMessage)
	r.GET("/all/:id", deps.Handler.GetMessages)
}

// frontend serves the built single-page app, falling back to index.html.
func frontend(dir string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Not found", "success": false})
			return
		}
		path := filepath.Join(dir, filepath.Clean("/"+ctx.Request.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			ctx.File(path)
			return
		}
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err == nil {
			ctx.File(index)
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Not found", "success": false})
	}
}
