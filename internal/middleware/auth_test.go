package middleware

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskpulse/api/transport"
	"github.com/fastygo/taskpulse/pkg/httpcontext"
)

const secret = "test-secret"

func run(t *testing.T, header string) (*fasthttp.RequestCtx, string) {
	t.Helper()
	var seen string
	handler := JWTAuth(secret, nil)(func(ctx *fasthttp.RequestCtx) {
		seen = httpcontext.UserID(ctx)
		ctx.SetStatusCode(http.StatusOK)
	})
	ctx := &fasthttp.RequestCtx{}
	if header != "" {
		ctx.Request.Header.Set("Authorization", header)
	}
	handler(ctx)
	return ctx, seen
}

func errorMessage(t *testing.T, ctx *fasthttp.RequestCtx) string {
	t.Helper()
	var env transport.RawEnvelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	assert.Equal(t, transport.StatusError, env.Status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
	return env.Message()
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	token, expires, err := IssueToken(secret, "taskpulse", "u1", time.Hour, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Second)

	ctx, user := run(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "u1", user)

	ctx, user = run(t, token)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "u1", user)
}

func TestJWTAuthRejects(t *testing.T) {
	expired, _, err := IssueToken(secret, "taskpulse", "u1", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	foreign, _, err := IssueToken("other-secret", "taskpulse", "u1", time.Hour, time.Now())
	require.NoError(t, err)
	anonymous, _, err := IssueToken(secret, "taskpulse", "", time.Hour, time.Now())
	require.NoError(t, err)

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"missing", "", "missing bearer token"},
		{"garbage", "Bearer nope", "invalid token"},
		{"expired", "Bearer " + expired, "invalid token"},
		{"wrong secret", "Bearer " + foreign, "invalid token"},
		{"no subject", "Bearer " + anonymous, "token has no subject"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, user := run(t, tc.header)
			assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
			assert.Empty(t, user)
			assert.Equal(t, tc.message, errorMessage(t, ctx))
		})
	}
}
