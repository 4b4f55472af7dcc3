package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/metrics"
	appLogger "github.com/fastygo/taskpulse/pkg/logger"
)

// CredentialSource yields the bearer token for the next request, or "" when there is no session.
type CredentialSource interface {
	Credential() string
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func() string

func (f CredentialFunc) Credential() string { return f() }

// Config controls the HTTP client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	MaxConns  int
	UserAgent string
	// Dial overrides the dialer, e.g. with an in-memory listener in tests.
	Dial fasthttp.DialFunc
}

// Client talks to the task service REST API. It implements every gateway port.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	timeout time.Duration
	creds   CredentialSource
	logger  *zap.Logger
}

// NewClient builds a Client. A nil credential source means no request is ever issued.
func NewClient(cfg Config, creds CredentialSource, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "taskpulse"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if creds == nil {
		creds = CredentialFunc(func() string { return "" })
	}
	httpClient := &fasthttp.Client{
		Name:                cfg.UserAgent,
		MaxConnsPerHost:     cfg.MaxConns,
		ReadTimeout:         cfg.Timeout,
		WriteTimeout:        cfg.Timeout,
		MaxIdleConnDuration: time.Minute,
	}
	if cfg.Dial != nil {
		httpClient.Dial = cfg.Dial
	} else {
		httpClient.Dial = (&fasthttp.TCPDialer{Concurrency: 64}).Dial
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		creds:   creds,
		logger:  logger,
	}
}

// DialInMemory returns a dialer for a listener that exposes Dial, such as fasthttputil.InmemoryListener.
func DialInMemory(ln interface{ Dial() (net.Conn, error) }) fasthttp.DialFunc {
	return func(string) (net.Conn, error) { return ln.Dial() }
}

type call struct {
	op     string
	method string
	path   string
	query  map[string]string
	body   interface{}
	// public calls skip the credential gate.
	public bool
}

func (c *Client) do(ctx context.Context, cl call, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		metrics.GatewayLatency.WithLabelValues(cl.op).Observe(time.Since(start).Seconds())
		code := "ok"
		if err != nil {
			code = string(domain.CodeOf(err))
		}
		metrics.GatewayRequests.WithLabelValues(cl.op, code).Inc()
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	token := c.creds.Credential()
	if token == "" && !cl.public {
		return domain.ErrNoCredential
	}
	if err := ctx.Err(); err != nil {
		return domain.WrapError(codeForContext(err), "request cancelled", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + cl.path)
	req.Header.SetMethod(cl.method)
	req.Header.SetContentType("application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := appLogger.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)
	for k, v := range cl.query {
		if v != "" {
			req.URI().QueryArgs().Add(k, v)
		}
	}
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "encode request", err)
		}
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	log := appLogger.WithRequestID(appLogger.ContextWithRequestID(ctx, reqID), c.logger)
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		log.Warn("remote call failed", zap.String("op", cl.op), zap.String("path", cl.path), zap.Error(err))
		return domain.WrapError(domain.ErrCodeNetwork, domain.ErrNoResponse.Message, err)
	}

	status := resp.StatusCode()
	log.Debug("remote call",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)))

	return decodeResponse(status, resp.Body(), out)
}

func codeForContext(err error) domain.ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrCodeNetwork
	}
	return domain.ErrCodeInternal
}
