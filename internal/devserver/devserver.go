// Package devserver assembles the in-memory reference task service.
package devserver

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskpulse/api/handler"
	"github.com/fastygo/taskpulse/internal/middleware"
	"github.com/fastygo/taskpulse/internal/router"
	"github.com/fastygo/taskpulse/pkg/httpcontext"
	"github.com/fastygo/taskpulse/repository/memory"
)

type Options struct {
	Secret         string
	Issuer         string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	Now            func() time.Time
	Logger         *zap.Logger
}

// Server is the reference API with its backing store exposed for inspection.
type Server struct {
	Store   *memory.Store
	Handler fasthttp.RequestHandler
	opts    Options
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Secret == "" {
		opts.Secret = "taskpulse-dev-secret"
	}
	if opts.Issuer == "" {
		opts.Issuer = "taskpulse"
	}
	store := memory.New(opts.Now)
	adapter := httpcontext.NewAdapter(opts.RequestTimeout)

	auth := apiHandler.NewAuthHandler(opts.Secret, opts.Issuer, opts.TokenTTL, adapter, opts.Logger)
	handlers := router.Handlers{
		Auth:      auth,
		Task:      apiHandler.NewTaskHandler(store, adapter, opts.Logger),
		Analytics: apiHandler.NewAnalyticsHandler(store, adapter, opts.Logger),
		Scheduler: apiHandler.NewSchedulerHandler(store, adapter, opts.Logger),
		Health:    apiHandler.NewHealthHandler(adapter, opts.Logger),
	}
	r := router.New(handlers, middleware.JWTAuth(opts.Secret, opts.Logger))
	return &Server{Store: store, Handler: r.Handler, opts: opts}
}

// Token issues a bearer token for userID, for tests and local tooling.
func (s *Server) Token(userID string, ttl time.Duration) (string, error) {
	now := time.Now
	if s.opts.Now != nil {
		now = s.opts.Now
	}
	token, _, err := middleware.IssueToken(s.opts.Secret, s.opts.Issuer, userID, ttl, now())
	return token, err
}

// HTTPServer wraps the handler in a fasthttp server.
func (s *Server) HTTPServer(name string) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:      s.Handler,
		Name:         name,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}
}
