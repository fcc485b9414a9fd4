// Package rest is the HTTP boundary: it deserializes requests, resolves the
// caller's identity from the bearer token, and maps service results and
// sentinel errors onto JSON responses and status codes. All business rules
// live in the services; nothing here touches storage directly.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mindmaster/mindmapd/internal/logging"
	"github.com/mindmaster/mindmapd/internal/server/models"
)

// UserService is the slice of the user service the boundary needs.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, string, error)
	Login(ctx context.Context, username, password string) (*models.User, string, error)
	ResolveToken(ctx context.Context, token string) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
	ResetPassword(ctx context.Context, userID int64, newPassword string) error
	ListUsers(ctx context.Context) ([]*models.UserSummary, error)
}

// DocumentService is the live-document sync engine.
type DocumentService interface {
	Pull(ctx context.Context, userID int64) (*models.Document, error)
	Push(ctx context.Context, userID int64, data json.RawMessage, clientVersion *int64) (int64, error)
}

// FileService manages the saved files.
type FileService interface {
	List(ctx context.Context, userID int64) ([]*models.FileSummary, error)
	Create(ctx context.Context, userID int64, name string, data json.RawMessage) (*models.File, error)
	Get(ctx context.Context, userID, fileID int64) (*models.File, error)
	Rename(ctx context.Context, userID, fileID int64, name string) (*models.FileSummary, error)
	UpdateData(ctx context.Context, userID, fileID int64, data json.RawMessage) (*models.FileSummary, error)
	Delete(ctx context.Context, userID, fileID int64) error
	ListAll(ctx context.Context) ([]*models.OwnedFileSummary, error)
	DeleteAny(ctx context.Context, fileID int64) error
}

type Server struct {
	address   string
	logger    logging.Logger
	users     UserService
	documents DocumentService
	files     FileService
	router    *gin.Engine
}

func NewServer(address string, l logging.Logger, us UserService, ds DocumentService, fs FileService) *Server {
	s := &Server{
		address:   address,
		logger:    l.With("module", "rest_server"),
		users:     us,
		documents: ds,
		files:     fs,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	// Authorization must be allowed or the frontend cannot send the token.
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	authed := api.Group("", s.requireAuth())
	authed.GET("/auth/me", s.me)
	authed.POST("/auth/reset-password", s.changePassword)

	authed.GET("/sync/pull", s.syncPull)
	authed.POST("/sync/push", s.syncPush)

	authed.GET("/files", s.listFiles)
	authed.POST("/files", s.createFile)
	authed.GET("/files/:id", s.getFile)
	authed.PUT("/files/:id/rename", s.renameFile)
	authed.PUT("/files/:id/data", s.updateFileData)
	authed.DELETE("/files/:id", s.deleteFile)

	admin := authed.Group("/admin", s.requireAdmin())
	admin.GET("/users", s.adminListUsers)
	admin.POST("/users/:id/reset-password", s.adminResetPassword)
	admin.GET("/files", s.adminListFiles)
	admin.DELETE("/files/:id", s.adminDeleteFile)

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
