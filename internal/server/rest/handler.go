package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindmaster/mindmapd/internal/common"
	"github.com/mindmaster/mindmapd/internal/server/models"
)

type authRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,min=6,max=128"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=128"`
}

type passwordResetRequest struct {
	Password string `json:"password" binding:"required,min=6,max=128"`
}

type syncPushRequest struct {
	Data            json.RawMessage `json:"data" binding:"required"`
	ClientUpdatedAt *int64          `json:"client_updated_at"`
}

type fileCreateRequest struct {
	Name string          `json:"name" binding:"required,min=1,max=120"`
	Data json.RawMessage `json:"data" binding:"required"`
}

type fileRenameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=120"`
}

type fileUpdateRequest struct {
	Data json.RawMessage `json:"data" binding:"required"`
}

type fileDetailResponse struct {
	models.FileSummary
	Data json.RawMessage `json:"data"`
}

func fileDetail(f *models.File) fileDetailResponse {
	return fileDetailResponse{
		FileSummary: models.FileSummary{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt},
		Data:        f.Data,
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().Unix()})
}

func (s *Server) register(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user, token, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "username": user.Username})
}

func (s *Server) login(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user, token, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "username": user.Username})
}

func (s *Server) me(c *gin.Context) {
	user := s.identity(c)
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username, "is_admin": user.IsAdmin})
}

func (s *Server) changePassword(c *gin.Context) {
	var req passwordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := s.users.ChangePassword(c.Request.Context(), s.identity(c).ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) syncPull(c *gin.Context) {
	doc, err := s.documents.Pull(c.Request.Context(), s.identity(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if doc == nil {
		// an empty slot is a normal state, not an error
		c.JSON(http.StatusOK, gin.H{"data": nil, "updated_at": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": doc.Data, "updated_at": doc.UpdatedAt})
}

func (s *Server) syncPush(c *gin.Context) {
	var req syncPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	version, err := s.documents.Push(c.Request.Context(), s.identity(c).ID, req.Data, req.ClientUpdatedAt)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated_at": version})
}

func (s *Server) listFiles(c *gin.Context) {
	listing, err := s.files.List(c.Request.Context(), s.identity(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if listing == nil {
		listing = []*models.FileSummary{}
	}
	c.JSON(http.StatusOK, listing)
}

func (s *Server) createFile(c *gin.Context) {
	var req fileCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	file, err := s.files.Create(c.Request.Context(), s.identity(c).ID, req.Name, req.Data)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fileDetail(file))
}

func (s *Server) getFile(c *gin.Context) {
	fileID, ok := s.pathID(c)
	if !ok {
		return
	}

	file, err := s.files.Get(c.Request.Context(), s.identity(c).ID, fileID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fileDetail(file))
}

func (s *Server) renameFile(c *gin.Context) {
	fileID, ok := s.pathID(c)
	if !ok {
		return
	}
	var req fileRenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	summary, err := s.files.Rename(c.Request.Context(), s.identity(c).ID, fileID, req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) updateFileData(c *gin.Context) {
	fileID, ok := s.pathID(c)
	if !ok {
		return
	}
	var req fileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	summary, err := s.files.UpdateData(c.Request.Context(), s.identity(c).ID, fileID, req.Data)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) deleteFile(c *gin.Context) {
	fileID, ok := s.pathID(c)
	if !ok {
		return
	}

	if err := s.files.Delete(c.Request.Context(), s.identity(c).ID, fileID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) adminListUsers(c *gin.Context) {
	listing, err := s.users.ListUsers(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if listing == nil {
		listing = []*models.UserSummary{}
	}
	c.JSON(http.StatusOK, listing)
}

func (s *Server) adminResetPassword(c *gin.Context) {
	userID, ok := s.pathID(c)
	if !ok {
		return
	}
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := s.users.ResetPassword(c.Request.Context(), userID, req.Password); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) adminListFiles(c *gin.Context) {
	listing, err := s.files.ListAll(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if listing == nil {
		listing = []*models.OwnedFileSummary{}
	}
	c.JSON(http.StatusOK, listing)
}

func (s *Server) adminDeleteFile(c *gin.Context) {
	fileID, ok := s.pathID(c)
	if !ok {
		return
	}

	if err := s.files.DeleteAny(c.Request.Context(), fileID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pathID parses the :id path parameter. A malformed id is a validation
// failure, not a lookup miss.
func (s *Server) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid id"})
		return 0, false
	}
	return id, true
}

// writeError maps sentinel errors to status codes. Anything unknown is a
// storage or programming failure and surfaces as a plain 500; the message
// is logged, not leaked.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already exists"})
	case errors.Is(err, common.ErrorWrongPassword):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Current password is incorrect"})
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid username or password"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": "Admin only"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
	case errors.Is(err, common.ErrorConflict):
		c.JSON(http.StatusConflict, gin.H{"detail": "Remote data is newer, pull first"})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}
