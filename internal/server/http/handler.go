// Package http exposes the ProfileKeeper server API over gin: registration,
// login, authenticated profile reads and presigned avatar flows.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"profilekeeper/internal/common"
	"profilekeeper/internal/logging"
	"profilekeeper/internal/server/models"
)

// UserProvider is the account surface the API needs.
type UserProvider interface {
	Register(ctx context.Context, name, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	GetProfile(ctx context.Context, id string) (*models.User, error)
	SetAvatar(ctx context.Context, id, key string) error
}

// AvatarProvider issues presigned URLs for avatar objects.
type AvatarProvider interface {
	GetPresignedPutURL(ctx context.Context, userID string) (string, string, error)
	GetPresignedGetURL(ctx context.Context, key string) (string, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   UserProvider
	avatars AvatarProvider
	secret  []byte
	log     logging.Logger
}

func NewHandler(users UserProvider, avatars AvatarProvider, secret []byte, log logging.Logger) *Handler {
	return &Handler{
		users:   users,
		avatars: avatars,
		secret:  secret,
		log:     log.With("module", "http"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		authed := api.Group("", authMiddleware(h.secret))
		{
			authed.GET("/auth/me", h.me)
			authed.POST("/avatars/upload-url", h.avatarUploadURL)
			authed.GET("/avatars/download-url", h.avatarDownloadURL)
			authed.PUT("/users/avatar", h.setAvatar)
		}
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type setAvatarRequest struct {
	Key string `json:"key" binding:"required"`
}

type profileResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	AvatarRef   string     `json:"avatar_ref,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func profileFromUser(u *models.User) profileResponse {
	resp := profileResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarRef: u.AvatarKey,
		CreatedAt: u.CreatedAt,
	}
	if u.LastLoginAt.Valid {
		t := u.LastLoginAt.Time
		resp.LastLoginAt = &t
	}
	return resp
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, token, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileFromUser(user))
}

func (h *Handler) avatarUploadURL(c *gin.Context) {
	key, url, err := h.avatars.GetPresignedPutURL(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}

func (h *Handler) avatarDownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	url, err := h.avatars.GetPresignedGetURL(c.Request.Context(), key)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) setAvatar(c *gin.Context) {
	var req setAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.SetAvatar(c.Request.Context(), userID(c), req.Key); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps domain errors to HTTP statuses with a JSON error body.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, common.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, common.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.log.Error(c.Request.Context(), "request failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
