// Package api is the HTTP surface: a gin server with cookie-based auth,
// resource handlers and SSE chat streaming.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexora-ai/nexora/pkg/config"
	"github.com/nexora-ai/nexora/pkg/database"
	"github.com/nexora-ai/nexora/pkg/services"
	"github.com/nexora-ai/nexora/pkg/tasks"
)

// Server owns the gin engine and the service dependencies.
type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	http     *http.Server
	tokens   *services.TokenService
	users    *services.UserService
	oauth    *services.OAuthService
	courses  *services.CourseService
	question *services.QuestionService
	chat     *services.ChatService
	search   *services.SearchService
	notes    *services.NoteService
	stats    *services.StatisticsService
	files    *services.FileService
	registry *tasks.Registry
	db       *database.Client
	logger   *slog.Logger
}

// Deps bundles everything the server needs.
type Deps struct {
	Config    *config.Config
	Tokens    *services.TokenService
	Users     *services.UserService
	OAuth     *services.OAuthService
	Courses   *services.CourseService
	Questions *services.QuestionService
	Chat      *services.ChatService
	Search    *services.SearchService
	Notes     *services.NoteService
	Stats     *services.StatisticsService
	Files     *services.FileService
	Registry  *tasks.Registry
	DB        *database.Client
	Logger    *slog.Logger
}

// NewServer builds the server and registers all routes.
func NewServer(d Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:      d.Config,
		engine:   gin.New(),
		tokens:   d.Tokens,
		users:    d.Users,
		oauth:    d.OAuth,
		courses:  d.Courses,
		question: d.Questions,
		chat:     d.Chat,
		search:   d.Search,
		notes:    d.Notes,
		stats:    d.Stats,
		files:    d.Files,
		registry: d.Registry,
		db:       d.DB,
		logger:   d.Logger.With("component", "api"),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.handleHealth)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", s.handleSignup)
		auth.POST("/login", s.handleLogin)
		auth.POST("/logout", s.requireAuth(), s.handleLogout)
		auth.POST("/refresh", s.handleRefresh)
		// Serves both /auth/login/{provider} and /auth/{provider}/callback;
		// gin's tree cannot hold a static and a wildcard segment side by
		// side, so one route dispatches on the path parameters.
		auth.GET("/:a/:b", s.handleOAuthRoute)
	}

	users := api.Group("/users", s.requireAuth())
	{
		users.GET("/me", s.handleCurrentUser)
		users.GET("", s.requireAdmin(), s.handleListUsers)
		users.GET("/:id", s.handleGetUser)
		users.PUT("/:id", s.handleUpdateUser)
		users.DELETE("/:id", s.handleDeleteUser)
		users.PUT("/:id/change_password", s.handleChangePassword)
	}

	courses := api.Group("/courses", s.requireAuth())
	{
		courses.POST("/create", s.handleCreateCourse)
		courses.GET("", s.handleListCourses)
		courses.GET("/public", s.handleListPublicCourses)
		courses.GET("/:id", s.handleGetCourse)
		courses.PUT("/:id", s.handleUpdateCourse)
		courses.PATCH("/:id/public", s.handleSetCoursePublic)
		courses.DELETE("/:id", s.handleDeleteCourse)
		courses.GET("/:id/chapters", s.handleListChapters)
		courses.GET("/:id/chapters/:cid", s.handleGetChapter)
		courses.PUT("/:id/chapters/:cid", s.handleUpdateChapter)
		courses.PATCH("/:id/chapters/:cid/complete", s.handleCompleteChapter)
		courses.PATCH("/:id/chapters/:cid/incomplete", s.handleIncompleteChapter)
		courses.GET("/:id/chapters/:cid/notes", s.handleListNotes)
		courses.POST("/:id/chapters/:cid/notes", s.handleCreateNote)
		courses.PUT("/:id/chapters/:cid/notes/:nid", s.handleUpdateNote)
		courses.DELETE("/:id/chapters/:cid/notes/:nid", s.handleDeleteNote)
		courses.GET("/:id/chat", s.handleChatHistory)
		courses.DELETE("/:id/chat", s.handleClearChat)
	}

	// Practice questions address the chapter pair directly.
	chapters := api.Group("/chapters", s.requireAuth())
	{
		chapters.GET("/:id/chapters/:cid", s.handleListQuestions)
		chapters.GET("/:id/chapters/:cid/:qid/save", s.handleSaveAnswer)
		chapters.GET("/:id/chapters/:cid/:qid/feedback", s.handleFeedback)
	}

	api.POST("/chat/:cid", s.requireAuth(), s.handleChat)

	taskGroup := api.Group("/tasks", s.requireAuth())
	{
		taskGroup.GET("", s.handleListTasks)
		taskGroup.GET("/:id", s.handleGetTask)
		taskGroup.POST("/:id/cancel", s.handleCancelTask)
		taskGroup.POST("/:id/retry", s.handleRetryTask)
	}

	api.GET("/search", s.requireAuth(), s.handleSearch)

	files := api.Group("/files", s.requireAuth())
	{
		files.POST("/documents", s.handleUploadDocument)
		files.GET("/documents", s.handleListDocuments)
		files.GET("/documents/:id", s.handleDownloadDocument)
		files.DELETE("/documents/:id", s.handleDeleteDocument)
		files.POST("/images", s.handleUploadImage)
		files.GET("/images", s.handleListImages)
		files.GET("/images/:id", s.handleDownloadImage)
		files.DELETE("/images/:id", s.handleDeleteImage)
	}

	stats := api.Group("/statistics", s.requireAuth())
	{
		stats.POST("/usage", s.handleUsagePing)
		stats.GET("/summary", s.handleStatsSummary)
	}
}

// Start serves HTTP until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              ":" + s.cfg.HTTPPort,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "port", s.cfg.HTTPPort)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
