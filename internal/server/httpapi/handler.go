// Package httpapi exposes the rotation engine over HTTP with gin.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/gin-gonic/gin"
)

// TokenService is the part of the rotation engine the handlers call.
type TokenService interface {
	Refresh(ctx context.Context, token string) (*models.Session, error)
	Issue(ctx context.Context, userID string) (*models.Session, error)
	Revoke(ctx context.Context, token string) error
}

// Pinger reports credential store reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type issueRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler wires HTTP endpoints to the token service.
type Handler struct {
	tokens     TokenService
	pinger     Pinger
	adminToken string
	logger     logging.Logger
}

func NewHandler(tokens TokenService, pinger Pinger, adminToken string, l logging.Logger) *Handler {
	return &Handler{
		tokens:     tokens,
		pinger:     pinger,
		adminToken: adminToken,
		logger:     l.With("module", "http"),
	}
}

// Refresh handles POST /token.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, common.CodeInvalidRequest)
		return
	}

	session, err := h.tokens.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Revoke handles POST /token/revoke.
func (h *Handler) Revoke(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, common.CodeInvalidRequest)
		return
	}

	if err := h.tokens.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Issue handles POST /sessions. It is called by the login frontend after it
// has authenticated the user, and requires the admin bearer token.
func (h *Handler) Issue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, common.CodeInvalidRequest)
		return
	}

	session, err := h.tokens.Issue(c.Request.Context(), req.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	if h.pinger != nil {
		if err := h.pinger.PingContext(c.Request.Context()); err != nil {
			abort(c, http.StatusServiceUnavailable, common.CodeStoreUnavailable)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireAdmin rejects requests without the configured bearer token. With no
// token configured every request is rejected.
func (h *Handler) requireAdmin(c *gin.Context) {
	got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || h.adminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) != 1 {
		abort(c, http.StatusUnauthorized, common.CodeUnauthorized)
		return
	}
	c.Next()
}

func (h *Handler) fail(c *gin.Context, err error) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, common.ErrInvalidRefreshToken):
		abort(c, http.StatusUnauthorized, common.CodeInvalidRefreshToken)
	case errors.Is(err, common.ErrStoreUnavailable):
		h.logger.Error(ctx, "credential store unavailable", "error", err)
		abort(c, http.StatusServiceUnavailable, common.CodeStoreUnavailable)
	case errors.Is(err, common.ErrorUnknownUser):
		abort(c, http.StatusNotFound, common.CodeUnknownUser)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abort(c, http.StatusServiceUnavailable, common.CodeStoreUnavailable)
	default:
		h.logger.Error(ctx, "request failed", "error", err)
		abort(c, http.StatusInternalServerError, common.CodeInternal)
	}
}

func abort(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code})
}
