package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apimeister/unpatched-server/internal/auth"
	"github.com/apimeister/unpatched-server/internal/domain"
)

// authUsecaser is the subset of *usecase.AuthUsecase the handler needs,
// defined at point of use so tests can inject a fake.
type authUsecaser interface {
	Login(ctx context.Context, addr, clientID, clientSecret string) (string, error)
	Verify(raw string) (string, error)
}

type AuthHandler struct {
	auth   authUsecaser
	logger *slog.Logger
}

func NewAuthHandler(auth authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger.With("component", "auth_handler")}
}

type authorizeRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// POST /api/v1/authorize implements the operator login flow. The client's
// IP, not anything in the body, is what the blacklist keys on.
func (h *AuthHandler) Authorize(c *gin.Context) {
	var req authorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadRequest})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), c.ClientIP(), req.ClientID, req.ClientSecret)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": errMissingCredentials})
		case errors.Is(err, domain.ErrInvalidEmail):
			c.JSON(http.StatusNotAcceptable, gin.H{"error": errInvalidEmail})
		case errors.Is(err, domain.ErrWrongCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": errWrongCredentials})
		case errors.Is(err, domain.ErrTokenCreation):
			c.JSON(http.StatusInternalServerError, gin.H{"error": errTokenCreation})
		default:
			h.logger.Error("authorize", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	auth.SetCookie(c.Writer, token)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GET /logout clears the operator's session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	auth.ClearCookie(c.Writer)
	c.Status(http.StatusOK)
}

// GET /loginstatus reports whether the caller holds a valid token.
func (h *AuthHandler) LoginStatus(c *gin.Context) {
	raw := auth.ExtractToken(c.Request)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errWrongCredentials})
		return
	}
	email, err := h.auth.Verify(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errWrongCredentials})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email})
}
