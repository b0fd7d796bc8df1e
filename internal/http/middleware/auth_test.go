package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"separapp/internal/auth"
	"separapp/internal/config"
	httpctx "separapp/internal/http/ctx"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessExpires:    time.Minute,
		RefreshExpires:   time.Hour,
	}
}

func runMiddleware(t *testing.T, handler fasthttp.RequestHandler, authHeader string) *fasthttp.RequestCtx {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/api/ranking")
	if authHeader != "" {
		ctx.Request.Header.Set("Authorization", authHeader)
	}
	handler(ctx)
	return ctx
}

func TestBearerAuthValidToken(t *testing.T) {
	cfg := testConfig()
	token, err := auth.SignAccessToken(cfg, 7, "ana@example.com", 1)
	require.NoError(t, err)

	var gotID uint
	next := func(ctx *fasthttp.RequestCtx) {
		claims, ok := httpctx.ClaimsFromCtx(ctx)
		require.True(t, ok)
		gotID, _ = claims.UserID()
		ctx.SetStatusCode(fasthttp.StatusOK)
	}

	ctx := runMiddleware(t, BearerAuth(cfg)(next), "Bearer "+token)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, uint(7), gotID)
}

func TestBearerAuthMissingHeader(t *testing.T) {
	called := false
	next := func(ctx *fasthttp.RequestCtx) { called = true }

	ctx := runMiddleware(t, BearerAuth(testConfig())(next), "")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.False(t, called)
	assert.Contains(t, string(ctx.Response.Body()), `"success":false`)
}

func TestBearerAuthBadScheme(t *testing.T) {
	ctx := runMiddleware(t, BearerAuth(testConfig())(func(*fasthttp.RequestCtx) {}), "Basic abc")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestBearerAuthInvalidToken(t *testing.T) {
	ctx := runMiddleware(t, BearerAuth(testConfig())(func(*fasthttp.RequestCtx) {}), "Bearer garbage")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestBearerAuthRefreshTokenRejected(t *testing.T) {
	cfg := testConfig()
	refresh, err := auth.SignRefreshToken(cfg, 7, "ana@example.com", 1)
	require.NoError(t, err)

	ctx := runMiddleware(t, BearerAuth(cfg)(func(*fasthttp.RequestCtx) {}), "Bearer "+refresh)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestAdminOnly(t *testing.T) {
	cfg := testConfig()

	adminToken, err := auth.SignAccessToken(cfg, 1, "admin@separapp.local", 2)
	require.NoError(t, err)
	userToken, err := auth.SignAccessToken(cfg, 2, "ana@example.com", 1)
	require.NoError(t, err)

	handler := BearerAuth(cfg)(AdminOnly(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
	}))

	ctx := runMiddleware(t, handler, "Bearer "+adminToken)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = runMiddleware(t, handler, "Bearer "+userToken)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
}
