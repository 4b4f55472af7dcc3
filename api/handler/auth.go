package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/api/transport"
	"github.com/fastygo/taskpulse/internal/middleware"
	"github.com/fastygo/taskpulse/pkg/httpcontext"
)

type AuthHandler struct {
	baseHandler
	secret     string
	issuer     string
	defaultTTL time.Duration
	now        func() time.Time
}

func NewAuthHandler(secret, issuer string, ttl time.Duration, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		secret:      secret,
		issuer:      issuer,
		defaultTTL:  ttl,
		now:         time.Now,
	}
}

// @Summary Issue a bearer token
// @Tags auth
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.AuthLoginRequest
	if !h.decode(ctx, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		h.badRequest(ctx, "user_id is required")
		return
	}

	ttl := h.defaultTTL
	if req.TTL > 0 {
		ttl = time.Duration(req.TTL) * time.Second
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	token, expires, err := middleware.IssueToken(h.secret, h.issuer, req.UserID, ttl, h.now())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.AuthLoginResponse{
		Token:     token,
		UserID:    req.UserID,
		ExpiresAt: expires,
	})
}
