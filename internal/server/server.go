package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/config"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/database"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/handlers"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/middleware"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/search"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/session"
)

// Options wires the server. DB is nil when running on the in-memory store.
type Options struct {
	Config  config.Config
	Handler *handlers.Handler
	Auth    *middleware.Authenticator
	DB      *database.Database
	Store   forum.Store
	Revoker session.Revoker
	Search  *search.Service
}

type Server struct {
	opts Options
}

// NewServer creates and configures a new server
func NewServer(opts Options) *http.Server {
	s := &Server{opts: opts}

	server := &http.Server{
		Addr:         "0.0.0.0:" + opts.Config.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	slog.Info("server configured", "port", opts.Config.Port, "store", opts.Config.StoreDriver)
	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	origins := s.opts.Config.CORSOrigins
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// credentials cannot be combined with a literal "*"
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.health)

	h := s.opts.Handler
	required := s.opts.Auth.Required()
	optional := s.opts.Auth.Optional()

	api := r.Group("/api")
	{
		users := api.Group("/users")
		users.POST("", h.User.Register)
		users.GET("", h.User.ListUsers)
		users.GET("/:id", h.User.GetUserProfile)
		users.PUT("/:id/avatar", required, h.User.UploadAvatar)
		users.PATCH("/:id/ban", required, middleware.RequireAdmin(), h.User.SetBanned)
		users.PATCH("/:id/role", required, middleware.RequireAdmin(), h.User.SetRole)

		authGroup := api.Group("/auth")
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", required, h.Auth.Logout)
		authGroup.GET("/me", required, h.Auth.Me)

		questions := api.Group("/questions")
		questions.GET("", h.Question.GetQuestions)
		questions.GET("/:id", optional, h.Question.GetQuestion)
		questions.POST("", required, h.Question.CreateQuestion)
		questions.PUT("/:id", required, h.Question.UpdateQuestion)
		questions.DELETE("/:id", required, h.Question.DeleteQuestion)
		questions.POST("/:id/vote", required, h.Question.VoteQuestion)
		questions.POST("/:id/accept-answer", required, h.Question.AcceptAnswer)
		questions.DELETE("/:id/accept-answer", required, h.Question.UnacceptAnswer)
		questions.PATCH("/:id/close", required, h.Question.CloseQuestion)

		answers := api.Group("/answers")
		answers.GET("", h.Answer.GetAnswers)
		answers.GET("/:id", h.Answer.GetAnswer)
		answers.POST("", required, h.Answer.CreateAnswer)
		answers.PUT("/:id", required, h.Answer.UpdateAnswer)
		answers.DELETE("/:id", required, h.Answer.DeleteAnswer)
		answers.POST("/:id/vote", required, h.Answer.VoteAnswer)

		tags := api.Group("/tags")
		tags.GET("", h.Tag.GetTags)
		tags.POST("", required, h.Tag.CreateTag)

		api.GET("/search", h.Search.Search)

		notifications := api.Group("/notifications", required)
		notifications.GET("", h.Notification.GetNotifications)
		notifications.PATCH("/:id/read", h.Notification.MarkRead)
	}

	return r
}

// health reports the database, session store and search engine. Only the
// database decides the status code; the others degrade gracefully.
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok"}

	switch {
	case s.opts.DB != nil:
		stats := s.opts.DB.Health(ctx)
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		body["database"] = stats
	case s.opts.Store != nil:
		if err := s.opts.Store.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["database"] = gin.H{"status": "down", "error": err.Error()}
		} else {
			body["database"] = gin.H{"status": "up", "driver": "memory"}
		}
	}

	if s.opts.Revoker != nil {
		if err := s.opts.Revoker.Ping(ctx); err != nil {
			body["sessions"] = "down"
		} else {
			body["sessions"] = "up"
		}
	}
	if s.opts.Search != nil {
		if s.opts.Search.Healthy() {
			body["search"] = "meilisearch"
		} else {
			body["search"] = "fallback"
		}
	}

	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
