package middleware

import (
	"bytes"
	"strings"

	"github.com/valyala/fasthttp"

	"separapp/internal/auth"
	"separapp/internal/config"
	httpctx "separapp/internal/http/ctx"
)

const rolAdministrador = 2

func unauthorized(ctx *fasthttp.RequestCtx, msg string) {
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"success":false,"error":"` + msg + `"}`)
}

// BearerAuth validates the Authorization header as a JWT access token
// and stores its claims on the request context.
func BearerAuth(cfg *config.Config) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			authHeader := ctx.Request.Header.Peek("Authorization")
			if len(authHeader) == 0 {
				unauthorized(ctx, "Token de acceso requerido")
				return
			}

			const prefix = "Bearer "
			if !bytes.HasPrefix(authHeader, []byte(prefix)) {
				unauthorized(ctx, "Encabezado Authorization inválido")
				return
			}

			token := strings.TrimSpace(string(authHeader[len(prefix):]))
			if token == "" {
				unauthorized(ctx, "Token de acceso requerido")
				return
			}

			claims, err := auth.ParseAccessToken(cfg, token)
			if err != nil {
				unauthorized(ctx, "Token inválido o expirado")
				return
			}

			httpctx.SetClaims(ctx, claims)
			next(ctx)
		}
	}
}

// AdminOnly gates a handler behind the administrator role. Must run
// inside BearerAuth.
func AdminOnly(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		claims, ok := httpctx.ClaimsFromCtx(ctx)
		if !ok {
			unauthorized(ctx, "Token de acceso requerido")
			return
		}
		if claims.Rol != rolAdministrador {
			ctx.SetStatusCode(fasthttp.StatusForbidden)
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{"success":false,"error":"Se requiere rol de administrador"}`)
			return
		}
		next(ctx)
	}
}
