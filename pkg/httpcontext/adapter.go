package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskpulse/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyUserID     Key = "user_id"
	KeyRemoteAddr Key = "remote_addr"
)

// UserValueUserID is the fasthttp user value the auth middleware stores the caller under.
const UserValueUserID = "user_id"

// Adapter converts fasthttp.RequestCtx into a stdlib context with a deadline, the request id
// and the authenticated user.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach echoes the request id back on the response.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if userID := UserID(ctx); userID != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserID, userID)
	}
	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	return stdCtx, cancel
}

// UserID returns the authenticated caller of ctx, "" when the route is public.
func UserID(ctx *fasthttp.RequestCtx) string {
	userID, _ := ctx.UserValue(UserValueUserID).(string)
	return userID
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if header := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID"))); header != "" {
		return header
	}
	return uuid.NewString()
}
